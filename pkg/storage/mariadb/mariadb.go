package mariadb

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/c14220110/poliklinik-antrian/config"
)

// DSN menyusun DSN MariaDB dari konfigurasi.
// Kolom DATETIME di-parse ke zona waktu fasilitas.
func DSN(cfg *config.Config) (string, error) {
	loc, err := cfg.Location()
	if err != nil {
		return "", errors.Wrap(err, "load timezone")
	}
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = loc
	mc.Timeout = cfg.StoreTimeout
	mc.ReadTimeout = cfg.StoreTimeout
	mc.WriteTimeout = cfg.StoreTimeout
	return mc.FormatDSN(), nil
}

// Connect membuka koneksi ke database MariaDB.
// Semua kredensial diambil dari .env melalui config.go.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "gagal membuka koneksi ke database")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "gagal melakukan ping ke database")
	}

	log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("Berhasil terhubung ke MariaDB.")
	return db, nil
}
