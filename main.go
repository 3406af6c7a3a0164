package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/c14220110/poliklinik-antrian/config"
	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/logging"
	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	"github.com/c14220110/poliklinik-antrian/internal/routes"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/schema"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
	"github.com/c14220110/poliklinik-antrian/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "poliklinik-antrian",
		Short: "Backend antrian APM dan registrasi poliklinik",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Jalankan HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Terapkan skema sebelum server berjalan")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Terapkan skema database sesuai DB_DRIVER",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			logging.Init(cfg.AppEnv)

			ctx := context.Background()
			db, dialect, err := storage.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := schema.Apply(ctx, db, string(dialect))
			if err != nil {
				return errors.Wrap(err, "migrasi gagal")
			}
			log.Info().Int("statements", n).Str("dialect", string(dialect)).Msg("skema diterapkan")
			return nil
		},
	}
}

// tokenCmd membuat JWT untuk terminal loket atau poli.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Buat JWT petugas memakai JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			role, _ := cmd.Flags().GetString("role")
			username, _ := cmd.Flags().GetString("username")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg := config.LoadConfig()
			tok, err := utils.GenerateJWTToken(cfg.JWTSecret, id, role, username, time.Now().Add(ttl))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("id", "", "ID karyawan")
	cmd.Flags().String("role", "administrasi", "Role petugas")
	cmd.Flags().String("username", "", "Username petugas")
	cmd.Flags().Duration("ttl", 12*time.Hour, "Masa berlaku token")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runServer(migrate bool) error {
	cfg := config.LoadConfig()
	logger := logging.Init(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if _, err := schema.Apply(ctx, db, string(dialect)); err != nil {
			return errors.Wrap(err, "migrasi gagal")
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := waktu.NewClock(loc)

	allocator, closeAlloc, err := newAllocator(ctx, cfg, db, dialect)
	if err != nil {
		return err
	}
	defer closeAlloc()

	hub := ws.NewHub()
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if cfg.RabbitMQURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			// event broker opsional; papan antrian websocket tetap jalan
			log.Warn().Err(err).Msg("RabbitMQ tidak tersedia, event hanya dikirim ke websocket")
		} else {
			defer rp.Close()
			publishers = append(publishers, rp)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middlewares.Logger(logger))
	e.Use(echomw.CORS())

	routes.Init(e, routes.Dependencies{
		Store:            storage.NewStore(db, dialect, cfg.StoreTimeout),
		Allocator:        allocator,
		Clock:            clock,
		Events:           publishers,
		Hub:              hub,
		JWTSecret:        cfg.JWTSecret,
		APMJenis:         cfg.APMJenis,
		RegistrasiPrefix: cfg.RegistrasiPrefix,
	})

	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	go func() {
		log.Info().Str("port", cfg.Port).Str("db", string(dialect)).Str("sequence", cfg.SequenceBackend).Msg("Server berjalan")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server berhenti")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Mematikan server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newAllocator(ctx context.Context, cfg *config.Config, db *sql.DB, dialect storage.Dialect) (sequence.Allocator, func(), error) {
	if cfg.SequenceBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		return sequence.NewRedisAllocator(client, cfg.StoreTimeout), func() { client.Close() }, nil
	}
	return sequence.NewSQLAllocator(db, dialect, cfg.StoreTimeout), func() {}, nil
}
