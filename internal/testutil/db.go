// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"rebels-bot/pkg/db"
)

// NewSQLiteDB opens a fresh schema-initialized SQLite database under t.TempDir().
func NewSQLiteDB(t testing.TB) *sqlx.DB {
	t.Helper()
	database, err := db.Open(context.Background(), db.Config{
		URI: "sqlite://" + filepath.Join(t.TempDir(), "rebels.db"),
	})
	require.NoError(t, err, "open sqlite test database")
	t.Cleanup(func() { _ = database.Close() })
	return database
}
