// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Storage backends accepted by STORE_BACKEND.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// ============================================================
// DEVELOPER: Add new configuration fields here.
// ============================================================
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
//
// Durations accept Go duration strings ("5m", "100ms").
//
// After adding fields here, update loader.go Validate() if custom
// validation is needed.
// ============================================================
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"BreakTimer"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Storage configuration
	// ============================================================
	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"data/break-timer.db"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries uint64 `env:"REDIS_MAX_RETRIES" envDefault:"5"`

	// ============================================================
	// User settings
	// ============================================================
	// Empty keeps settings in memory with defaults.
	SettingsPath string `env:"SETTINGS_PATH"`

	// ============================================================
	// Timer engine configuration
	// ============================================================
	InactivityThreshold  time.Duration `env:"INACTIVITY_THRESHOLD" envDefault:"5m"`
	LivenessInterval     time.Duration `env:"LIVENESS_INTERVAL" envDefault:"30s"`
	NotificationCooldown time.Duration `env:"NOTIFICATION_COOLDOWN" envDefault:"5m"`
	TabDebounce          time.Duration `env:"TAB_DEBOUNCE" envDefault:"100ms"`
	StaleSessionAfter    time.Duration `env:"STALE_SESSION_AFTER" envDefault:"8h"`
	CheckpointTimeout    time.Duration `env:"CHECKPOINT_TIMEOUT" envDefault:"3s"`

	// ============================================================
	// Notification configuration
	// ============================================================
	// Empty disables publishing intents to Redis.
	NotifyRedisChannel string `env:"NOTIFY_REDIS_CHANNEL"`
	NotifyMaxRetries   uint64 `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT"`

	// ============================================================
	// DEVELOPER: Add your custom configuration fields below
	// ============================================================
}
