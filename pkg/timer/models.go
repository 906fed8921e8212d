// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import "time"

// Mode is the engine's current work/break mode.
type Mode string

const (
	ModeWorking Mode = "working"
	ModePaused  Mode = "paused"
	ModeOnBreak Mode = "on_break"
)

// BreakType identifies a configured break length.
type BreakType string

const (
	BreakShort  BreakType = "short"
	BreakMedium BreakType = "medium"
	BreakLong   BreakType = "long"
)

// Valid reports whether b is a known break type.
func (b BreakType) Valid() bool {
	switch b {
	case BreakShort, BreakMedium, BreakLong:
		return true
	}
	return false
}

// State is the engine's mutable timer state.
//
// WorkStartTime is non-zero only in ModeWorking. BreakType, BreakStartTime,
// BreakDuration and BreakID are all set exactly when Mode is ModeOnBreak.
type State struct {
	Mode                 Mode
	WorkStartTime        time.Time
	AccumulatedWorkTime  time.Duration
	LastActivityTime     time.Time
	BreakType            BreakType
	BreakStartTime       time.Time
	BreakDuration        time.Duration
	BreakID              string
	IsBrowserFocused     bool
	LastNotificationTime time.Time
	// WorkThreshold is this user's threshold. Zero means the settings default.
	WorkThreshold        time.Duration
}

func freshState(now time.Time) State {
	return State{
		Mode:             ModeWorking,
		WorkStartTime:    now,
		LastActivityTime: now,
		IsBrowserFocused: true,
	}
}

// CurrentWorkTime returns accumulated time plus the open segment, if any.
func (s State) CurrentWorkTime(now time.Time) time.Duration {
	current := s.AccumulatedWorkTime
	if s.Mode == ModeWorking && !s.WorkStartTime.IsZero() {
		if open := now.Sub(s.WorkStartTime); open > 0 {
			current += open
		}
	}
	return current
}

// RemainingBreakTime returns the time left in the current break, never negative.
func (s State) RemainingBreakTime(now time.Time) time.Duration {
	if s.Mode != ModeOnBreak {
		return 0
	}
	remaining := s.BreakDuration - now.Sub(s.BreakStartTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *State) clearBreak() {
	s.BreakType = ""
	s.BreakStartTime = time.Time{}
	s.BreakDuration = 0
	s.BreakID = ""
}

// Status is a read-only snapshot returned by GetTimerStatus.
type Status struct {
	Mode                Mode
	CurrentWorkTime     time.Duration
	WorkThreshold       time.Duration
	IsThresholdExceeded bool
	RemainingBreakTime  time.Duration
	BreakType           BreakType
	BreakDuration       time.Duration
	BreakID             string
	LastActivityTime    time.Time
	IsBrowserFocused    bool
}

// Fields renders the status with durations and timestamps in milliseconds.
func (s Status) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"mode":                string(s.Mode),
		"currentWorkTime":     float64(s.CurrentWorkTime.Milliseconds()),
		"workThresholdMs":     float64(s.WorkThreshold.Milliseconds()),
		"isThresholdExceeded": s.IsThresholdExceeded,
		"remainingBreakTime":  float64(s.RemainingBreakTime.Milliseconds()),
		"lastActivityTime":    float64(s.LastActivityTime.UnixMilli()),
		"isBrowserFocused":    s.IsBrowserFocused,
	}
	if s.BreakType != "" {
		fields["breakType"] = string(s.BreakType)
		fields["breakDuration"] = float64(s.BreakDuration.Milliseconds())
		fields["breakId"] = s.BreakID
	} else {
		fields["breakType"] = nil
	}
	return fields
}

// IntentType names an intent emitted for the notification dispatcher.
type IntentType string

const (
	IntentBreakThresholdReached IntentType = "break_threshold_reached"
	IntentBreakStarted          IntentType = "break_started"
	IntentBreakEnded            IntentType = "break_ended"
)

// BreakOutcome records how a break ended.
type BreakOutcome string

const (
	OutcomeCompleted BreakOutcome = "completed"
	OutcomeCancelled BreakOutcome = "cancelled"
	OutcomeExpired   BreakOutcome = "expired"
	OutcomeReset     BreakOutcome = "reset"
)

// Intent is an abstract request for a user-facing effect.
type Intent struct {
	Type          IntentType
	UserID        string
	WorkTime      time.Duration
	BreakType     BreakType
	BreakDuration time.Duration
	BreakID       string
	Outcome       BreakOutcome
	At            time.Time
}
