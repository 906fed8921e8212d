// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-break-timer/internal/config"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()

	t.Setenv("GRPC_PORT", "0")
	t.Setenv("HTTP_PORT", "0")
	t.Setenv("METRICS_PORT", "0")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("STORE_BACKEND", config.StoreMemory)
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Parse()
	require.NoError(t, err)
	return cfg
}

func TestApp_RunAndShutdown(t *testing.T) {
	cfg := testConfig(t, nil)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()

	engine, err := app.Manager().Engine(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, engine.StartBreak(timer.BreakShort, 0))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("application did not shut down")
	}

	_, err = app.Manager().Engine(context.Background(), "alice")
	assert.ErrorIs(t, err, timer.ErrEngineStopped)
}

func TestApp_RedisBackendWithPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, map[string]string{
		"STORE_BACKEND":        config.StoreRedis,
		"REDIS_HOST":           mr.Host(),
		"REDIS_PORT":           mr.Port(),
		"NOTIFY_REDIS_CHANNEL": "break-timer:intents",
	})

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	require.NotNil(t, app.redisClient)
	assert.Equal(t, 2, app.dispatcher.Registry().Count())

	engine, err := app.Manager().Engine(context.Background(), "bob")
	require.NoError(t, err)
	engine.Flush()
	assert.True(t, mr.Exists(app.Manager().Options().TimerStateKey("bob")))
}

func TestApp_SQLiteBackendWithSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("work_threshold_minutes: 45\n"), 0o644))

	cfg := testConfig(t, map[string]string{
		"STORE_BACKEND": config.StoreSQLite,
		"SQLITE_PATH":   filepath.Join(dir, "timer.db"),
		"SETTINGS_PATH": settingsPath,
	})

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	require.NotNil(t, app.settingsFile)
	assert.Equal(t, 45, app.settings.Current().WorkThresholdMinutes)
	assert.Nil(t, app.redisClient)

	engine, err := app.Manager().Engine(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, engine.GetTimerStatus().WorkThreshold)
}

func TestApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	cfg := testConfig(t, map[string]string{
		"STORE_BACKEND":     config.StoreRedis,
		"REDIS_HOST":        host,
		"REDIS_PORT":        port,
		"REDIS_MAX_RETRIES": "1",
	})

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
