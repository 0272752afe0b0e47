package export

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktrack/tasktrack/internal/tasks"
	"github.com/tasktrack/tasktrack/report"
)

type recordingConverter struct {
	filename string
	html     string
	opts     report.PageOptions
	err      error
}

func (c *recordingConverter) Convert(ctx context.Context, filename string, html io.Reader, opts report.PageOptions) (io.ReadCloser, error) {
	data, err := io.ReadAll(html)
	if err != nil {
		return nil, err
	}
	c.filename, c.html, c.opts = filename, string(data), opts
	if c.err != nil {
		return nil, c.err
	}
	return io.NopCloser(strings.NewReader("%PDF")), nil
}

func sampleTasks() []tasks.Task {
	return []tasks.Task{
		{Title: "Write report", Description: "quarterly numbers", DueDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Status: tasks.StatusInProgress},
		{Title: "Fix <bug>", Description: "escape me", DueDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), Status: tasks.StatusPending},
	}
}

func TestRenderTasksBuildsDocument(t *testing.T) {
	conv := &recordingConverter{}
	renderer, err := NewRenderer(conv)
	require.NoError(t, err)

	out, err := renderer.RenderTasks(context.Background(), sampleTasks())
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, "index.html", conv.filename)
	assert.Equal(t, "8.5", conv.opts.PaperWidth)
	assert.Contains(t, conv.html, "<h1>Task List</h1>")
	assert.Contains(t, conv.html, "Task 1: Write report")
	assert.Contains(t, conv.html, "Task 2: Fix &lt;bug&gt;")
	assert.Contains(t, conv.html, "April 1, 2026")
	assert.Contains(t, conv.html, "In Progress")
	assert.Contains(t, conv.html, "Pending")
	assert.Less(t, strings.Index(conv.html, "Write report"), strings.Index(conv.html, "Fix &lt;bug&gt;"))
}

func TestRenderTasksPropagatesConverterError(t *testing.T) {
	renderer, err := NewRenderer(&recordingConverter{err: errors.New("gotenberg down")})
	require.NoError(t, err)

	_, err = renderer.RenderTasks(context.Background(), sampleTasks())
	assert.EqualError(t, err, "gotenberg down")
}
