// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import "time"

const (
	// MaxWorkSegment is the longest open work segment trusted on recovery.
	MaxWorkSegment = 24 * time.Hour

	// MaxBreakElapsed is the longest break elapsed time trusted on recovery.
	MaxBreakElapsed = 4 * time.Hour

	// MaxBreakMinutes bounds a single requested break.
	MaxBreakMinutes = 240
)

// Options tunes engine timing. Zero values are replaced with defaults.
// RecoveryRetryInterval spaces out load retries while the store is unavailable.
type Options struct {
	InactivityThreshold   time.Duration
	NotificationCooldown  time.Duration
	TabDebounce           time.Duration
	StaleSessionAfter     time.Duration
	CheckpointTimeout     time.Duration
	LivenessInterval      time.Duration
	RecoveryRetryInterval time.Duration
	KeyPrefix             string
}

// DefaultOptions returns the standard engine timing.
func DefaultOptions() Options {
	return Options{
		InactivityThreshold:   5 * time.Minute,
		NotificationCooldown:  5 * time.Minute,
		TabDebounce:           100 * time.Millisecond,
		StaleSessionAfter:     8 * time.Hour,
		CheckpointTimeout:     3 * time.Second,
		LivenessInterval:      30 * time.Second,
		RecoveryRetryInterval: 5 * time.Second,
		KeyPrefix:             "break_timer:",
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.InactivityThreshold <= 0 {
		o.InactivityThreshold = defaults.InactivityThreshold
	}
	if o.NotificationCooldown <= 0 {
		o.NotificationCooldown = defaults.NotificationCooldown
	}
	if o.TabDebounce <= 0 {
		o.TabDebounce = defaults.TabDebounce
	}
	if o.StaleSessionAfter <= 0 {
		o.StaleSessionAfter = defaults.StaleSessionAfter
	}
	if o.CheckpointTimeout <= 0 {
		o.CheckpointTimeout = defaults.CheckpointTimeout
	}
	if o.LivenessInterval <= 0 {
		o.LivenessInterval = defaults.LivenessInterval
	}
	if o.RecoveryRetryInterval <= 0 {
		o.RecoveryRetryInterval = defaults.RecoveryRetryInterval
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = defaults.KeyPrefix
	}
	return o
}

// TimerStateKey returns the store key holding the timerState record for a user.
func (o Options) TimerStateKey(userID string) string {
	return o.withDefaults().KeyPrefix + userID + ":timerState"
}

// WorkSessionKey returns the store key holding the workSessionData record for a user.
func (o Options) WorkSessionKey(userID string) string {
	return o.withDefaults().KeyPrefix + userID + ":workSessionData"
}
