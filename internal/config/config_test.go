package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, "file", cfg.Store)
	assert.Equal(t, "storyboard:progress", cfg.ProgressPrefix)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, "en", cfg.PrimaryLocale())
	assert.Equal(t, "pt", cfg.SecondaryLocale())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORYBOARD_STORE", "redis")
	t.Setenv("STORYBOARD_REDIS_DB", "3")
	t.Setenv("STORYBOARD_REDIS_TTL", "1h")
	t.Setenv("STORYBOARD_LOCALES", "es,fr")
	t.Setenv("STORYBOARD_LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.RedisTTL)
	assert.Equal(t, "es", cfg.PrimaryLocale())
	assert.Equal(t, "fr", cfg.SecondaryLocale())
	assert.True(t, cfg.LogJSON)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORYBOARD_REDIS_DB", "three")
	_, err := Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestLocalesFallback(t *testing.T) {
	cfg := Config{Locales: []string{"de"}}
	assert.Equal(t, "de", cfg.PrimaryLocale())
	assert.Equal(t, "pt", cfg.SecondaryLocale())
}
