package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	cfg := load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 30, cfg.Auth.SessionTTLMinutes)
	assert.Equal(t, "sheets", cfg.Ingest.Source)
	assert.Equal(t, "NINE ACCORD 판매현황", cfg.Sheets.SpreadsheetName)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "PGX")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("INGEST_SOURCE", "object")
	t.Setenv("OBJECT_USE_SSL", "false")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DB_MAX_CONCURRENT_TX", "2")

	viper.Reset()
	cfg := load()

	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, "object", cfg.Ingest.Source)
	assert.False(t, cfg.Object.UseSSL)
	assert.Equal(t, int64(2), cfg.Database.MaxConcurrentTx)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " ", "c"}))
	assert.Nil(t, splitList(nil))
}
