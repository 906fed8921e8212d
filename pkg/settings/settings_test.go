// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_SetWorkThresholdMinutes(t *testing.T) {
	provider := NewProvider(Default())

	require.NoError(t, provider.SetWorkThresholdMinutes(45))
	assert.Equal(t, 45, provider.Current().WorkThresholdMinutes)

	assert.ErrorIs(t, provider.SetWorkThresholdMinutes(0), ErrInvalidThreshold)
	assert.ErrorIs(t, provider.SetWorkThresholdMinutes(-5), ErrInvalidThreshold)
	assert.ErrorIs(t, provider.SetWorkThresholdMinutes(MaxWorkThresholdMinutes+1), ErrInvalidThreshold)
	assert.Equal(t, 45, provider.Current().WorkThresholdMinutes)
}

func TestProvider_ReplaceSanitizes(t *testing.T) {
	provider := NewProvider(Default())
	provider.Replace(Settings{
		WorkThresholdMinutes: -1,
		BreakDurations:       BreakDurations{Short: 3},
		NotificationsEnabled: false,
	})

	current := provider.Current()
	assert.Equal(t, 30, current.WorkThresholdMinutes)
	assert.Equal(t, 3, current.BreakDurations.Short)
	assert.Equal(t, 10, current.BreakDurations.Medium)
	assert.Equal(t, 20, current.BreakDurations.Long)
	assert.False(t, current.NotificationsEnabled)
}

func TestSettings_BreakMinutes(t *testing.T) {
	s := Default()
	assert.Equal(t, 5, s.BreakMinutes("short"))
	assert.Equal(t, 10, s.BreakMinutes("medium"))
	assert.Equal(t, 20, s.BreakMinutes("long"))
	assert.Equal(t, 0, s.BreakMinutes("nap"))
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	provider, err := LoadFile(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), provider.Current())
}

func TestLoadFile_ParsesYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
work_threshold_minutes: 50
break_durations:
  short: 2
  long: 30
notifications_enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	provider, err := LoadFile(path)
	require.NoError(t, err)

	current := provider.Current()
	assert.Equal(t, 50, current.WorkThresholdMinutes)
	assert.Equal(t, 2, current.BreakDurations.Short)
	assert.Equal(t, 10, current.BreakDurations.Medium)
	assert.Equal(t, 30, current.BreakDurations.Long)
	assert.False(t, current.NotificationsEnabled)
}

func TestLoadFile_InvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("work_threshold_minutes: [oops"), 0o644))

	provider, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, Default(), provider.Current())
}

func TestFileProvider_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	provider, err := LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- provider.Watch(ctx) }()

	// The watcher registers asynchronously; keep rewriting until it notices.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("work_threshold_minutes: 42\n"), 0o644)
		return provider.Current().WorkThresholdMinutes == 42
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
