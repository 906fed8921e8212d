// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	return Parse()
}

// Parse reads the Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// RedisAddr returns the host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Validate performs custom validation on the configuration.
//
// ============================================================
// DEVELOPER: Add custom validation logic here.
// ============================================================
// This function is called after environment variables are parsed.
// ============================================================
func (c *Config) Validate() error {
	ports := []struct {
		name string
		port int
	}{
		{"GRPC_PORT", c.GRPCPort},
		{"HTTP_PORT", c.HTTPPort},
		{"METRICS_PORT", c.MetricsPort},
	}
	for _, p := range ports {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("invalid %s: %d (must be 1-65535)", p.name, p.port)
		}
	}

	switch c.StoreBackend {
	case StoreRedis, StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_BACKEND is %s", StoreSQLite)
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND: %q (must be %s, %s or %s)", c.StoreBackend, StoreRedis, StoreSQLite, StoreMemory)
	}

	if c.NotifyRedisChannel != "" && c.StoreBackend != StoreRedis {
		logrus.Warnf("NOTIFY_REDIS_CHANNEL is set with STORE_BACKEND %s: a Redis connection will still be opened for publishing", c.StoreBackend)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"INACTIVITY_THRESHOLD", c.InactivityThreshold},
		{"LIVENESS_INTERVAL", c.LivenessInterval},
		{"NOTIFICATION_COOLDOWN", c.NotificationCooldown},
		{"TAB_DEBOUNCE", c.TabDebounce},
		{"STALE_SESSION_AFTER", c.StaleSessionAfter},
		{"CHECKPOINT_TIMEOUT", c.CheckpointTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("invalid %s: %v (must be positive)", d.name, d.value)
		}
	}
	if c.StaleSessionAfter < c.InactivityThreshold {
		return fmt.Errorf("STALE_SESSION_AFTER (%v) must not be shorter than INACTIVITY_THRESHOLD (%v)", c.StaleSessionAfter, c.InactivityThreshold)
	}

	return nil
}
