package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/c14220110/poliklinik-antrian/config"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/mariadb"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/sqlite"
)

// Open membuka database sesuai DB_DRIVER.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, Dialect, error) {
	switch cfg.DBDriver {
	case string(MySQL):
		db, err := mariadb.Connect(ctx, cfg)
		return db, MySQL, err
	case string(SQLite):
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		return db, SQLite, err
	default:
		return nil, "", fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
