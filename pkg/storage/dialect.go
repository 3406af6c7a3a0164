package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
)

// Dialect menandai mesin database di belakang *sql.DB.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Builder mengembalikan query builder goqu untuk dialect ini.
func (d Dialect) Builder() goqu.DialectWrapper {
	if d == SQLite {
		return goqu.Dialect("sqlite3")
	}
	return goqu.Dialect("mysql")
}

// UpsertIncrement membangun satu statement yang membuat baris counter bernilai 1
// atau menaikkan nilainya secara atomik bila baris sudah ada.
// Parameter: tanggal, kategori, updated_at.
func (d Dialect) UpsertIncrement(table string) string {
	if d == SQLite {
		return fmt.Sprintf(`INSERT INTO %s (tanggal, kategori, nilai, updated_at) VALUES (?, ?, 1, ?)
			ON CONFLICT(tanggal, kategori) DO UPDATE SET nilai = nilai + 1, updated_at = excluded.updated_at`, table)
	}
	return fmt.Sprintf(`INSERT INTO %s (tanggal, kategori, nilai, updated_at) VALUES (?, ?, 1, ?)
		ON DUPLICATE KEY UPDATE nilai = nilai + 1, updated_at = VALUES(updated_at)`, table)
}

// MySQL: deadlock dan lock wait timeout. SQLite: BUSY dan LOCKED.
const (
	mysqlDeadlock    = 1213
	mysqlLockTimeout = 1205
	sqliteBusy       = 5
	sqliteLocked     = 6

	mysqlDuplicate   = 1062
	sqliteConstraint = 19
	sqlitePrimaryKey = 1555
	sqliteUnique     = 2067
)

// IsTransient melaporkan apakah err adalah konflik lock yang aman untuk diulang.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock || me.Number == mysqlLockTimeout
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}
	return false
}

// WithTimeout membatasi durasi satu panggilan ke store.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// IsDuplicate melaporkan pelanggaran unique key, misalnya nomor antrian
// yang sudah terpakai hari itu.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicate
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqliteUnique || code == sqlitePrimaryKey {
			return true
		}
		return code&0xff == sqliteConstraint && strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
