package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktrack/tasktrack/internal/platform/db/migrations"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations.Migrations, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := fs.ReadFile(migrations.Migrations, entries[0].Name())
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.Contains(body, "-- +goose Up"))
	assert.Contains(t, body, "users_email_key")
	assert.Contains(t, body, "'in progress'")
}

func TestMigrateWrapsGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errors.New("boom")
	}

	pool := newLazyPool(t)
	err := Migrate(context.Background(), pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform/db: migrate")
	assert.Equal(t, ".", gotDir)
}
