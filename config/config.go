package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv     string
	Port       string
	DBDriver   string // "mysql" atau "sqlite"
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string
	JWTSecret  string

	// Zona waktu fasilitas; "hari ini" untuk nomor antrian dihitung di zona ini.
	Timezone     string
	StoreTimeout time.Duration

	SequenceBackend string // "sql" atau "redis"
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	RabbitMQURL      string
	RabbitMQExchange string

	// Jenis loket yang boleh dipakai mesin APM, misal A = pasien baru, B = pasien lama.
	APMJenis []string
	// Prefix nomor antrian untuk loket pendaftaran.
	RegistrasiPrefix string
}

var (
	cfg  *Config
	once sync.Once
)

func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Warn().Msg(".env file not found. Relying on environment variables.")
		}
		cfg = FromEnv()
	})
	return cfg
}

// FromEnv membaca konfigurasi langsung dari environment tanpa singleton.
func FromEnv() *Config {
	return &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           getEnv("DB_HOST", "127.0.0.1"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBName:           os.Getenv("DB_NAME"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/poliklinik.db"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		Timezone:         getEnv("TIMEZONE", "Asia/Jakarta"),
		StoreTimeout:     getDuration("STORE_TIMEOUT", 5*time.Second),
		SequenceBackend:  strings.ToLower(getEnv("SEQUENCE_BACKEND", "sql")),
		RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "antrian.events"),
		APMJenis:         splitList(getEnv("APM_JENIS", "A,B")),
		RegistrasiPrefix: strings.ToUpper(strings.TrimSpace(getEnv("REGISTRASI_PREFIX", "A"))),
	}
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "development"
}

// Location mengembalikan zona waktu fasilitas.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate memastikan konfigurasi cukup untuk menjalankan server.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBName == "" || c.DBUser == "" {
			return fmt.Errorf("DB_NAME dan DB_USER wajib diisi untuk DB_DRIVER=mysql")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH wajib diisi untuk DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER harus \"mysql\" atau \"sqlite\", bukan %q", c.DBDriver)
	}

	if c.SequenceBackend != "sql" && c.SequenceBackend != "redis" {
		return fmt.Errorf("SEQUENCE_BACKEND harus \"sql\" atau \"redis\", bukan %q", c.SequenceBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET wajib diisi")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE tidak valid: %w", err)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT harus lebih dari 0")
	}

	if len(c.APMJenis) == 0 {
		return fmt.Errorf("APM_JENIS minimal berisi satu jenis loket")
	}
	for _, j := range append([]string{c.RegistrasiPrefix}, c.APMJenis...) {
		if len(j) != 1 || j[0] < 'A' || j[0] > 'Z' {
			return fmt.Errorf("jenis loket %q harus satu huruf kapital", j)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
