package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/internal/config"
	"github.com/aretw0/storyboard/pkg/adapters/file"
	"github.com/aretw0/storyboard/pkg/adapters/httpsource"
	"github.com/aretw0/storyboard/pkg/adapters/memory"
	"github.com/aretw0/storyboard/pkg/adapters/postgres"
	"github.com/aretw0/storyboard/pkg/adapters/redis"
	"github.com/aretw0/storyboard/pkg/adapters/sqlite"
	"github.com/aretw0/storyboard/pkg/observability"
	"github.com/aretw0/storyboard/pkg/persistence/middleware"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/aretw0/storyboard/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Store backends accepted by --store.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// App bundles the collaborators every command needs.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Player   *storyboard.Player
	Store    ports.KVStore
	Locker   ports.DistributedLocker
	Registry *prometheus.Registry

	closers []func() error
}

// Open builds the application from configuration.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	store, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	if rs, ok := store.(*redis.Store); ok {
		app.Locker = redis.NewLocker(rs.Client(), "storyboard:")
	}
	if store, err = EncryptStore(cfg, store); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = store

	metrics, err := observability.NewMetrics(app.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	trackers := []ports.Tracker{metrics}
	if logger.Enabled(ctx, slog.LevelDebug) {
		trackers = append(trackers, observability.LogTracker(logger))
	}
	if cfg.MQTTURL != "" {
		client, err := observability.DialMQTT(cfg.MQTTURL, fmt.Sprintf("storyboard-%d", os.Getpid()))
		if err != nil {
			logger.Warn("mqtt telemetry disabled", "url", cfg.MQTTURL, "err", err)
		} else {
			mqtt := observability.NewMQTTTracker(client, cfg.MQTTTopic, observability.WithMQTTLogger(logger))
			trackers = append(trackers, mqtt)
			app.closers = append(app.closers, func() error {
				err := mqtt.Close()
				client.Disconnect(250)
				return err
			})
		}
	}

	app.Player = storyboard.New(
		storyboard.WithSource(OpenSource(cfg)),
		storyboard.WithStore(store),
		storyboard.WithProgressPrefix(cfg.ProgressPrefix),
		storyboard.WithLogger(logger),
		storyboard.WithTracker(observability.Multi(trackers...)),
		storyboard.WithLocales(cfg.PrimaryLocale(), cfg.SecondaryLocale()),
	)
	return app, nil
}

// Sessions creates the scenario lock manager for server commands.
func (a *App) Sessions() *session.Manager {
	opts := []session.Option{session.WithLogger(a.Logger), session.WithLockTTL(a.Config.LockTTL)}
	if a.Locker != nil {
		opts = append(opts, session.WithLocker(a.Locker))
	}
	return session.NewManager(opts...)
}

// Close releases stores and telemetry connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// EncryptStore wraps store with at-rest encryption when a key is configured.
func EncryptStore(cfg config.Config, store ports.KVStore) (ports.KVStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	encCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.EncryptionFallbackKeys {
		key, err := middleware.ParseKey(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("fallback encryption key %d: %w", i, err)
		}
		encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(encCfg)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

// OpenSource returns the HTTP source when a URL is configured, else the
// directory source.
func OpenSource(cfg config.Config) ports.ScenarioSource {
	if cfg.URL != "" {
		return httpsource.New(cfg.URL)
	}
	return file.NewSource(cfg.Dir)
}

// OpenStore opens the configured progress backend. The returned closer may
// be nil.
func OpenStore(ctx context.Context, cfg config.Config) (ports.KVStore, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case StoreMemory:
		return memory.NewStore(), nil, nil

	case StoreFile, "":
		return file.NewStore(cfg.ProgressDir), nil, nil

	case StoreRedis:
		opts := []redis.Option{}
		if cfg.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.RedisTTL))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect redis at %s: %w", cfg.RedisAddr, err)
		}
		return store, store.Close, nil

	case StoreSQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case StorePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, file, redis, sqlite or postgres)", cfg.Store)
	}
}
