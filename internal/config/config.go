// Package config loads storyboard settings from STORYBOARD_* environment
// variables. Command-line flags override these values.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime settings shared by every command.
type Config struct {
	Dir string `env:"STORYBOARD_DIR" envDefault:"."`
	URL string `env:"STORYBOARD_URL"`

	Store          string `env:"STORYBOARD_STORE" envDefault:"file"`
	ProgressDir    string `env:"STORYBOARD_PROGRESS_DIR" envDefault:".storyboard/progress"`
	ProgressPrefix string `env:"STORYBOARD_PROGRESS_PREFIX" envDefault:"storyboard:progress"`

	RedisAddr     string        `env:"STORYBOARD_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"STORYBOARD_REDIS_PASSWORD"`
	RedisDB       int           `env:"STORYBOARD_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"STORYBOARD_REDIS_TTL" envDefault:"0s"`

	SQLitePath  string `env:"STORYBOARD_SQLITE_PATH" envDefault:".storyboard/progress.db"`
	PostgresDSN string `env:"STORYBOARD_POSTGRES_DSN"`

	Addr    string        `env:"STORYBOARD_ADDR" envDefault:":8080"`
	LockTTL time.Duration `env:"STORYBOARD_LOCK_TTL" envDefault:"30s"`

	// EncryptionKey is a base64 AES-256 key; when set, progress values are
	// encrypted at rest. Fallback keys still decrypt after rotation.
	EncryptionKey          string   `env:"STORYBOARD_ENCRYPTION_KEY"`
	EncryptionFallbackKeys []string `env:"STORYBOARD_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`

	MQTTURL   string `env:"STORYBOARD_MQTT_URL"`
	MQTTTopic string `env:"STORYBOARD_MQTT_TOPIC" envDefault:"storyboard/events"`

	Locales  []string `env:"STORYBOARD_LOCALES" envSeparator:"," envDefault:"en,pt"`
	LogLevel string   `env:"STORYBOARD_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool     `env:"STORYBOARD_LOG_JSON" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// PrimaryLocale returns the first configured locale field.
func (c Config) PrimaryLocale() string {
	if len(c.Locales) > 0 {
		return c.Locales[0]
	}
	return "en"
}

// SecondaryLocale returns the second configured locale field.
func (c Config) SecondaryLocale() string {
	if len(c.Locales) > 1 {
		return c.Locales[1]
	}
	return "pt"
}
