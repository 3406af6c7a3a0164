package sequence_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/storagetest"
)

const hari = "2026-10-16"

var keyA = sequence.Key{Scope: sequence.ScopeAPM, Prefix: "A"}

func TestSQLAllocator_Berurutan(t *testing.T) {
	db := storagetest.NewSQLite(t)
	alloc := sequence.NewSQLAllocator(db, storage.SQLite, 5*time.Second)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		tk, err := alloc.Next(ctx, keyA, hari)
		require.NoError(t, err)
		assert.Equal(t, i, tk.Nomor)
	}
	tk, err := alloc.Next(ctx, keyA, hari)
	require.NoError(t, err)
	assert.Equal(t, "A008", tk.Kode)
}

func TestSQLAllocator_CounterTerpisah(t *testing.T) {
	db := storagetest.NewSQLite(t)
	alloc := sequence.NewSQLAllocator(db, storage.SQLite, 5*time.Second)
	ctx := context.Background()

	_, err := alloc.Next(ctx, keyA, hari)
	require.NoError(t, err)
	_, err = alloc.Next(ctx, keyA, hari)
	require.NoError(t, err)

	b, err := alloc.Next(ctx, sequence.Key{Scope: sequence.ScopeAPM, Prefix: "B"}, hari)
	require.NoError(t, err)
	assert.Equal(t, "B001", b.Kode)

	reg, err := alloc.Next(ctx, sequence.Key{Scope: sequence.ScopeRegistrasi, Prefix: "A"}, hari)
	require.NoError(t, err)
	assert.Equal(t, "A001", reg.Kode, "nomor registrasi tidak berbagi counter dengan APM")

	besok, err := alloc.Next(ctx, keyA, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, 1, besok.Nomor, "hari baru mulai dari 1")
}

func TestSQLAllocator_Concurrent(t *testing.T) {
	db := storagetest.NewSQLite(t)
	alloc := sequence.NewSQLAllocator(db, storage.SQLite, 10*time.Second)

	const n = 50
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		nomor []int
	)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk, err := alloc.Next(context.Background(), keyA, hari)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			nomor = append(nomor, tk.Nomor)
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(nomor)
	require.Len(t, nomor, n)
	for i, v := range nomor {
		assert.Equal(t, i+1, v)
	}
}

func TestSQLAllocator_PrefixTidakValid(t *testing.T) {
	db := storagetest.NewSQLite(t)
	alloc := sequence.NewSQLAllocator(db, storage.SQLite, time.Second)

	_, err := alloc.Next(context.Background(), sequence.Key{Scope: sequence.ScopeAPM, Prefix: "AB"}, hari)
	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSQLAllocator_RetryDeadlock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO urutan_antrian").WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO urutan_antrian").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT nilai FROM urutan_antrian").
		WithArgs(hari, "apm:A").
		WillReturnRows(sqlmock.NewRows([]string{"nilai"}).AddRow(7))
	mock.ExpectCommit()

	alloc := sequence.NewSQLAllocator(db, storage.MySQL, time.Second)
	tk, err := alloc.Next(context.Background(), keyA, hari)
	require.NoError(t, err)
	assert.Equal(t, "A007", tk.Kode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAllocator_GagalPermanen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO urutan_antrian").WillReturnError(errors.New("table urutan_antrian doesn't exist"))
	mock.ExpectRollback()

	alloc := sequence.NewSQLAllocator(db, storage.MySQL, time.Second)
	_, err = alloc.Next(context.Background(), keyA, hari)

	var ae *apperror.AllocationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "apm:A", ae.Kategori)
	assert.NoError(t, mock.ExpectationsWereMet(), "error permanen tidak dicoba ulang")
}
