// Package storagetest menyediakan database SQLite sementara yang sudah
// dimigrasi untuk dipakai test lintas package.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c14220110/poliklinik-antrian/pkg/storage/schema"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/sqlite"
)

// NewSQLite membuka SQLite di direktori sementara dan menerapkan skema.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = schema.Apply(context.Background(), db, "sqlite")
	require.NoError(t, err)
	return db
}
