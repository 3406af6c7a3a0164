package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
)

// Store menggabungkan koneksi, dialect dan batas waktu per panggilan
// yang dipakai semua service.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
	Timeout time.Duration
}

func NewStore(db *sql.DB, dialect Dialect, timeout time.Duration) *Store {
	return &Store{DB: db, Dialect: dialect, Timeout: timeout}
}

// Ctx menurunkan context dengan batas waktu store.
func (s *Store) Ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return WithTimeout(ctx, s.Timeout)
}

// Builder mengembalikan query builder goqu sesuai dialect. Query dibangun
// dengan Prepared(true) agar nilai selalu dikirim sebagai parameter.
func (s *Store) Builder() goqu.DialectWrapper {
	return s.Dialect.Builder()
}
