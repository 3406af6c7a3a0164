package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("APM_JENIS", "")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("TIMEZONE", "")

	c := FromEnv()
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"A", "B"}, c.APMJenis)
	assert.Equal(t, "A", c.RegistrasiPrefix)
	assert.Equal(t, 5*time.Second, c.StoreTimeout)
	assert.Equal(t, "Asia/Jakarta", c.Timezone)
	assert.Equal(t, "sql", c.SequenceBackend)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("APM_JENIS", " a, b ,c")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("REDIS_DB", "not-a-number")

	c := FromEnv()
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, []string{"A", "B", "C"}, c.APMJenis)
	assert.Equal(t, 750*time.Millisecond, c.StoreTimeout)
	assert.Equal(t, 0, c.RedisDB)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:         "sqlite",
			SQLitePath:       "./x.db",
			JWTSecret:        "rahasia",
			Timezone:         "Asia/Jakarta",
			StoreTimeout:     time.Second,
			SequenceBackend:  "sql",
			APMJenis:         []string{"A", "B"},
			RegistrasiPrefix: "A",
		}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.DBDriver = "postgres"
	assert.Error(t, c.Validate())

	c = valid()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate(), "mysql without DB_NAME")

	c = valid()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.APMJenis = []string{"AB"}
	assert.Error(t, c.Validate())

	c = valid()
	c.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())

	c = valid()
	c.SequenceBackend = "etcd"
	assert.Error(t, c.Validate())
}
