package sequence

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
)

const tabelUrutan = "urutan_antrian"

// SQLAllocator menyimpan counter di tabel urutan_antrian, satu baris per
// (tanggal, kategori). UPSERT mengunci baris sampai commit sehingga SELECT
// setelahnya di transaksi yang sama membaca nilai milik pemanggil ini.
type SQLAllocator struct {
	DB         *sql.DB
	Dialect    storage.Dialect
	Timeout    time.Duration
	MaxRetries uint64
	Now        func() time.Time
}

func NewSQLAllocator(db *sql.DB, dialect storage.Dialect, timeout time.Duration) *SQLAllocator {
	return &SQLAllocator{DB: db, Dialect: dialect, Timeout: timeout, MaxRetries: 5, Now: time.Now}
}

func (a *SQLAllocator) Next(ctx context.Context, key Key, hari string) (Ticket, error) {
	if err := validateKey(key, hari); err != nil {
		return Ticket{}, err
	}

	ctx, cancel := storage.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var nomor int
	attempt := 0
	op := func() error {
		attempt++
		n, err := a.increment(ctx, key, hari)
		if err != nil {
			if storage.IsTransient(err) {
				log.Warn().Err(err).Str("kategori", key.String()).Int("attempt", attempt).Msg("konflik lock saat alokasi nomor, mencoba ulang")
				return err
			}
			return backoff.Permanent(err)
		}
		nomor = n
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 20 * time.Millisecond
	eb.MaxInterval = 500 * time.Millisecond
	eb.MaxElapsedTime = 0 // dibatasi oleh MaxRetries dan context
	b := backoff.WithContext(backoff.WithMaxRetries(eb, a.MaxRetries), ctx)

	if err := backoff.Retry(op, b); err != nil {
		return Ticket{}, &apperror.AllocationError{Kategori: key.String(), Err: err}
	}
	return Ticket{Nomor: nomor, Kode: FormatKode(key.Prefix, nomor)}, nil
}

func (a *SQLAllocator) increment(ctx context.Context, key Key, hari string) (int, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin transaksi urutan")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, a.Dialect.UpsertIncrement(tabelUrutan), hari, key.String(), now()); err != nil {
		return 0, errors.Wrap(err, "increment urutan")
	}

	var nilai int
	err = tx.QueryRowContext(ctx,
		"SELECT nilai FROM "+tabelUrutan+" WHERE tanggal = ? AND kategori = ?", hari, key.String(),
	).Scan(&nilai)
	if err != nil {
		return 0, errors.Wrap(err, "baca urutan")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit urutan")
	}
	return nilai, nil
}

func validateKey(key Key, hari string) error {
	if key.Scope == "" {
		return apperror.NewValidationError("scope nomor antrian wajib diisi", "scope")
	}
	if len(key.Prefix) != 1 || key.Prefix[0] < 'A' || key.Prefix[0] > 'Z' {
		return apperror.NewValidationError("jenis loket harus satu huruf kapital", "jenis")
	}
	if hari == "" {
		return apperror.NewValidationError("tanggal antrian wajib diisi", "tanggal")
	}
	return nil
}
