// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settings

import (
	"errors"
	"sync"
)

// MaxWorkThresholdMinutes bounds the configurable work threshold to one day.
const MaxWorkThresholdMinutes = 24 * 60

// ErrInvalidThreshold is returned for thresholds outside 1..MaxWorkThresholdMinutes.
var ErrInvalidThreshold = errors.New("work threshold must be between 1 and 1440 minutes")

// BreakDurations holds the default length in minutes of each break type.
type BreakDurations struct {
	Short  int `yaml:"short"`
	Medium int `yaml:"medium"`
	Long   int `yaml:"long"`
}

// Settings defines the user preferences the timer engine reads.
type Settings struct {
	WorkThresholdMinutes int
	BreakDurations       BreakDurations
	NotificationsEnabled bool
}

// Default returns the settings used on first run.
func Default() Settings {
	return Settings{
		WorkThresholdMinutes: 30,
		BreakDurations: BreakDurations{
			Short:  5,
			Medium: 10,
			Long:   20,
		},
		NotificationsEnabled: true,
	}
}

// BreakMinutes returns the configured duration for a break type, or 0 if the type is unknown.
func (s Settings) BreakMinutes(breakType string) int {
	switch breakType {
	case "short":
		return s.BreakDurations.Short
	case "medium":
		return s.BreakDurations.Medium
	case "long":
		return s.BreakDurations.Long
	}
	return 0
}

// Provider holds the current settings and allows runtime updates.
type Provider struct {
	mu      sync.RWMutex
	current Settings
}

// NewProvider creates a provider seeded with initial.
func NewProvider(initial Settings) *Provider {
	return &Provider{current: sanitize(initial)}
}

// Current returns a snapshot of the settings.
func (p *Provider) Current() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// SetWorkThresholdMinutes updates the work threshold.
func (p *Provider) SetWorkThresholdMinutes(minutes int) error {
	if minutes < 1 || minutes > MaxWorkThresholdMinutes {
		return ErrInvalidThreshold
	}
	p.mu.Lock()
	p.current.WorkThresholdMinutes = minutes
	p.mu.Unlock()
	return nil
}

// Replace swaps all settings at once; invalid fields fall back to defaults.
func (p *Provider) Replace(updated Settings) {
	updated = sanitize(updated)
	p.mu.Lock()
	p.current = updated
	p.mu.Unlock()
}

func sanitize(s Settings) Settings {
	defaults := Default()
	if s.WorkThresholdMinutes < 1 || s.WorkThresholdMinutes > MaxWorkThresholdMinutes {
		s.WorkThresholdMinutes = defaults.WorkThresholdMinutes
	}
	if s.BreakDurations.Short <= 0 {
		s.BreakDurations.Short = defaults.BreakDurations.Short
	}
	if s.BreakDurations.Medium <= 0 {
		s.BreakDurations.Medium = defaults.BreakDurations.Medium
	}
	if s.BreakDurations.Long <= 0 {
		s.BreakDurations.Long = defaults.BreakDurations.Long
	}
	return s
}
