package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/poliklinik-antrian/pkg/storage"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/storagetest"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, storage.IsTransient(nil))
	assert.False(t, storage.IsTransient(fmt.Errorf("boom")))
	assert.True(t, storage.IsTransient(&mysql.MySQLError{Number: 1213}))
	assert.True(t, storage.IsTransient(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, storage.IsTransient(&mysql.MySQLError{Number: 1062}))
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, storage.IsDuplicate(nil))
	assert.True(t, storage.IsDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.False(t, storage.IsDuplicate(&mysql.MySQLError{Number: 1213}))

	db := storagetest.NewSQLite(t)
	ctx := context.Background()
	q := "INSERT INTO urutan_antrian (tanggal, kategori, nilai, updated_at) VALUES (?, ?, 1, ?)"
	_, err := db.ExecContext(ctx, q, "2026-10-16", "apm:A", time.Now())
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, q, "2026-10-16", "apm:A", time.Now())
	require.Error(t, err)
	assert.True(t, storage.IsDuplicate(err))
	assert.False(t, storage.IsTransient(err))
}

func TestUpsertIncrement_SQLite(t *testing.T) {
	db := storagetest.NewSQLite(t)
	ctx := context.Background()
	q := storage.SQLite.UpsertIncrement("urutan_antrian")

	for i := 1; i <= 3; i++ {
		_, err := db.ExecContext(ctx, q, "2026-10-16", "apm:A", time.Now())
		require.NoError(t, err)

		var nilai int
		require.NoError(t, db.QueryRowContext(ctx,
			"SELECT nilai FROM urutan_antrian WHERE tanggal = ? AND kategori = ?", "2026-10-16", "apm:A").Scan(&nilai))
		assert.Equal(t, i, nilai)
	}

	// kategori lain punya counter sendiri
	_, err := db.ExecContext(ctx, q, "2026-10-16", "apm:B", time.Now())
	require.NoError(t, err)
	var nilai int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT nilai FROM urutan_antrian WHERE tanggal = ? AND kategori = ?", "2026-10-16", "apm:B").Scan(&nilai))
	assert.Equal(t, 1, nilai)
}

func TestUpsertIncrement_MySQLSyntax(t *testing.T) {
	q := storage.MySQL.UpsertIncrement("urutan_antrian")
	assert.Contains(t, q, "ON DUPLICATE KEY UPDATE nilai = nilai + 1")
}

func TestBuilder_Placeholders(t *testing.T) {
	for _, d := range []storage.Dialect{storage.MySQL, storage.SQLite} {
		query, args, err := d.Builder().From("antrian_apm").Prepared(true).
			Where(goqu.Ex{"tanggal": "2026-10-16"}).ToSQL()
		require.NoError(t, err)
		assert.Contains(t, query, "?")
		assert.Equal(t, []interface{}{"2026-10-16"}, args)
	}
}
