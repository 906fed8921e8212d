// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-break-timer/internal/config"
	"github.com/AccelByte/extend-break-timer/internal/server"
	"github.com/AccelByte/extend-break-timer/pkg/handler"
	"github.com/AccelByte/extend-break-timer/pkg/notify"
	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

const intentBuffer = 256

// userSettings is what the engines and the dispatcher need from the settings layer.
type userSettings interface {
	timer.SettingsProvider
	notify.SettingsReader
}

// timerStore is a checkpoint store whose reachability backs the health checks.
type timerStore interface {
	storage.Store
	storage.Pinger
}

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	store             timerStore
	closeStore        func() error
	settings          userSettings
	settingsFile      *settings.FileProvider
	manager           *timer.Manager
	dispatcher        *notify.Dispatcher
	intents           <-chan timer.Intent
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Timer store (Redis, SQLite or memory)
// 2. User settings (YAML file or in-memory defaults)
// 3. Timer manager
// 4. Notifiers and the intent dispatcher
// 5. Servers (gRPC, HTTP, metrics)
// 6. Telemetry (OpenTelemetry tracing)
//
// To deliver intents somewhere new, implement notify.Notifier
// and register it in initNotifiers.
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Initialize the timer store
	// ============================================================
	if err := app.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to init %s store: %w", cfg.StoreBackend, err)
	}

	// ============================================================
	// Step 2: Load user settings
	// ============================================================
	app.initSettings()

	// ============================================================
	// Step 3: Create the timer manager
	// ============================================================
	app.manager = timer.NewManager(timer.Dependencies{
		Store:    app.store,
		Settings: app.settings,
		Clock:    timer.SystemClock(),
	}, timer.Options{
		InactivityThreshold:  cfg.InactivityThreshold,
		NotificationCooldown: cfg.NotificationCooldown,
		TabDebounce:          cfg.TabDebounce,
		StaleSessionAfter:    cfg.StaleSessionAfter,
		CheckpointTimeout:    cfg.CheckpointTimeout,
		LivenessInterval:     cfg.LivenessInterval,
	})
	app.intents = app.manager.Subscribe(intentBuffer)

	// ============================================================
	// Step 4: Register notifiers
	// ============================================================
	registry, err := app.initNotifiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init notifiers: %w", err)
	}
	app.dispatcher = notify.NewDispatcher(registry, app.settings)

	// ============================================================
	// Step 5: Setup servers
	// ============================================================
	checker := storage.NewHealthChecker(app.store)

	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, handler.NewTimerService(app.manager), checker)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, handler.NewHTTPHandler(app.manager, checker.Check))
	if err := app.httpServer.Setup(cfg.Environment); err != nil {
		return nil, fmt.Errorf("failed to setup HTTP server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 6: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0, cfg.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// Manager returns the timer manager.
func (a *App) Manager() *timer.Manager {
	return a.manager
}

func (a *App) initStore(ctx context.Context) error {
	switch a.cfg.StoreBackend {
	case config.StoreRedis:
		if err := a.initRedis(ctx); err != nil {
			return err
		}
		a.store = storage.NewRedisStore(a.redisClient, storage.RedisStoreConfig{})
	case config.StoreSQLite:
		store, err := storage.NewSQLiteStore(a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.store = store
		a.closeStore = store.Close
		logrus.Infof("SQLite store opened at %s", a.cfg.SQLitePath)
	case config.StoreMemory:
		a.store = storage.NewMemoryStore()
		logrus.Warn("using in-memory timer store: timer state will not survive a restart")
	default:
		return fmt.Errorf("unknown store backend %q", a.cfg.StoreBackend)
	}
	return nil
}

// initSettings loads SETTINGS_PATH when set. A file that cannot be parsed
// leaves the defaults in place.
func (a *App) initSettings() {
	if a.cfg.SettingsPath == "" {
		a.settings = settings.NewProvider(settings.Default())
		logrus.Info("using default user settings")
		return
	}

	file, err := settings.LoadFile(a.cfg.SettingsPath)
	if err != nil {
		logrus.Warnf("failed to load settings from %s, using defaults: %v", a.cfg.SettingsPath, err)
	} else {
		logrus.Infof("loaded user settings from %s", a.cfg.SettingsPath)
	}
	a.settings = file
	a.settingsFile = file
}

// initNotifiers registers the builtin notifiers.
//
// ============================================================
// DEVELOPER: Register custom notifiers here
// ============================================================
// Example:
// if err := registry.Register(mynotifier.New(...)); err != nil {
//     return nil, err
// }
// ============================================================
func (a *App) initNotifiers(ctx context.Context) (*notify.Registry, error) {
	registry := notify.NewRegistry()
	if err := registry.Register(notify.NewLogNotifier(logrus.StandardLogger())); err != nil {
		return nil, err
	}

	if a.cfg.NotifyRedisChannel != "" {
		if a.redisClient == nil {
			if err := a.initRedis(ctx); err != nil {
				return nil, err
			}
		}
		publisher := notify.NewRedisPublisher(a.redisClient, a.cfg.NotifyRedisChannel, a.cfg.NotifyMaxRetries)
		if err := registry.Register(publisher); err != nil {
			return nil, err
		}
		logrus.Infof("publishing timer intents to Redis channel %s", a.cfg.NotifyRedisChannel)
	}

	return registry, nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithContext(backoff.WithMaxRetries(b, a.cfg.RedisMaxRetries), ctx)

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return errors.Join(err, client.Close())
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
