// Package export renders task lists into PDF documents through Gotenberg.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tasktrack/tasktrack/internal/tasks"
	"github.com/tasktrack/tasktrack/report"
	"github.com/tasktrack/tasktrack/web"
)

// Converter turns an HTML document into a PDF stream.
type Converter interface {
	Convert(ctx context.Context, filename string, html io.Reader, opts report.PageOptions) (io.ReadCloser, error)
}

// US Letter with half-inch margins.
var defaultPage = report.PageOptions{
	PaperWidth:   "8.5",
	PaperHeight:  "11",
	MarginTop:    "0.5",
	MarginBottom: "0.5",
	MarginLeft:   "0.5",
	MarginRight:  "0.5",
}

// Renderer implements tasks.PDFRenderer.
type Renderer struct {
	converter Converter
	templates *template.Template
}

type taskListPayload struct {
	Tasks []tasks.Task
}

// NewRenderer parses the task list template.
func NewRenderer(converter Converter) (*Renderer, error) {
	title := cases.Title(language.English)
	funcMap := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("January 2, 2006")
		},
		"statusLabel": func(s tasks.Status) string {
			return title.String(string(s))
		},
	}
	tpl, err := template.New("tasks_pdf.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/tasks_pdf.html")
	if err != nil {
		return nil, fmt.Errorf("parse task list template: %w", err)
	}
	return &Renderer{converter: converter, templates: tpl}, nil
}

// RenderTasks renders list in the given order and returns the PDF stream.
func (r *Renderer) RenderTasks(ctx context.Context, list []tasks.Task) (io.ReadCloser, error) {
	html, err := r.buildHTML(list)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return r.converter.Convert(ctx, "index.html", html, defaultPage)
}

func (r *Renderer) buildHTML(list []tasks.Task) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	if err := r.templates.Execute(buf, taskListPayload{Tasks: list}); err != nil {
		return nil, err
	}
	return buf, nil
}
