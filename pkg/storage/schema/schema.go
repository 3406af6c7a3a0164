// Package schema berisi DDL tabel antrian, registrasi, dan kunjungan untuk
// MariaDB dan SQLite.
package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"github.com/pkg/errors"
)

//go:embed mysql.sql
var mysqlDDL string

//go:embed sqlite.sql
var sqliteDDL string

// Statements memecah DDL dialect menjadi statement tunggal.
func Statements(dialect string) ([]string, error) {
	var ddl string
	switch dialect {
	case "mysql":
		ddl = mysqlDDL
	case "sqlite":
		ddl = sqliteDDL
	default:
		return nil, errors.Errorf("unknown dialect %q", dialect)
	}

	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Apply menjalankan seluruh DDL. Semua statement memakai IF NOT EXISTS
// sehingga aman dijalankan berulang.
func Apply(ctx context.Context, db *sql.DB, dialect string) (int, error) {
	stmts, err := Statements(dialect)
	if err != nil {
		return 0, err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return i, errors.Wrapf(err, "apply statement %d", i+1)
		}
	}
	return len(stmts), nil
}
