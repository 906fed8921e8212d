// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
)

// TimerStateRecord is the persisted mode record. Timestamps are epoch milliseconds.
type TimerStateRecord struct {
	IsWorkTimerActive    bool    `json:"isWorkTimerActive"`
	IsOnBreak            bool    `json:"isOnBreak"`
	BreakType            *string `json:"breakType"`
	LastActivityTime     int64   `json:"lastActivityTime"`
	WorkTimeThreshold    int64   `json:"workTimeThreshold"`
	IsBrowserFocused     *bool   `json:"isBrowserFocused,omitempty"`
	LastNotificationTime int64   `json:"lastNotificationTime,omitempty"`
	BreakID              string  `json:"breakId,omitempty"`
}

// WorkSessionRecord is the persisted timing record. Durations are milliseconds.
type WorkSessionRecord struct {
	WorkStartTime  *int64 `json:"workStartTime"`
	TotalWorkTime  int64  `json:"totalWorkTime"`
	BreakStartTime *int64 `json:"breakStartTime"`
	BreakDuration  *int64 `json:"breakDuration"`
}

// Record pairs the two persisted records of one engine.
type Record struct {
	TimerState  TimerStateRecord
	WorkSession WorkSessionRecord
}

func newRecord(state State, threshold time.Duration) Record {
	focused := state.IsBrowserFocused
	record := Record{
		TimerState: TimerStateRecord{
			IsWorkTimerActive: state.Mode == ModeWorking,
			IsOnBreak:         state.Mode == ModeOnBreak,
			LastActivityTime:  toMillis(state.LastActivityTime),
			WorkTimeThreshold: threshold.Milliseconds(),
			IsBrowserFocused:  &focused,
			BreakID:           state.BreakID,
		},
		WorkSession: WorkSessionRecord{
			TotalWorkTime: state.AccumulatedWorkTime.Milliseconds(),
		},
	}
	if !state.LastNotificationTime.IsZero() {
		record.TimerState.LastNotificationTime = toMillis(state.LastNotificationTime)
	}
	if !state.WorkStartTime.IsZero() {
		start := toMillis(state.WorkStartTime)
		record.WorkSession.WorkStartTime = &start
	}
	if state.Mode == ModeOnBreak {
		breakType := string(state.BreakType)
		breakStart := toMillis(state.BreakStartTime)
		breakDuration := state.BreakDuration.Milliseconds()
		record.TimerState.BreakType = &breakType
		record.WorkSession.BreakStartTime = &breakStart
		record.WorkSession.BreakDuration = &breakDuration
	}
	return record
}

// State validates the record and converts it to engine state, repairing
// inconsistencies that have an unambiguous fix. It returns ErrCorruptedState
// when no consistent state can be produced.
func (r Record) State(now time.Time) (State, error) {
	timerState := r.TimerState
	session := r.WorkSession

	state := State{
		AccumulatedWorkTime:  time.Duration(session.TotalWorkTime) * time.Millisecond,
		LastActivityTime:     fromMillis(timerState.LastActivityTime),
		LastNotificationTime: fromMillis(timerState.LastNotificationTime),
		IsBrowserFocused:     true,
	}
	if timerState.IsBrowserFocused != nil {
		state.IsBrowserFocused = *timerState.IsBrowserFocused
	}

	if state.AccumulatedWorkTime < 0 {
		state.AccumulatedWorkTime = 0
	}
	if state.AccumulatedWorkTime > MaxWorkSegment {
		return State{}, fmt.Errorf("%w: total work time %v exceeds %v", ErrCorruptedState, state.AccumulatedWorkTime, MaxWorkSegment)
	}
	if state.LastActivityTime.After(now) {
		state.LastActivityTime = now
	}
	if state.LastNotificationTime.After(now) {
		state.LastNotificationTime = time.Time{}
	}
	if threshold := time.Duration(timerState.WorkTimeThreshold) * time.Millisecond; validThreshold(threshold) {
		state.WorkThreshold = threshold
	}

	switch {
	case timerState.IsOnBreak:
		if timerState.BreakType == nil || session.BreakStartTime == nil || session.BreakDuration == nil {
			return State{}, fmt.Errorf("%w: break without type, start or duration", ErrCorruptedState)
		}
		breakType := BreakType(*timerState.BreakType)
		if !breakType.Valid() {
			return State{}, fmt.Errorf("%w: unknown break type %q", ErrCorruptedState, breakType)
		}
		if *session.BreakDuration <= 0 {
			return State{}, fmt.Errorf("%w: non-positive break duration %d", ErrCorruptedState, *session.BreakDuration)
		}
		state.Mode = ModeOnBreak
		state.BreakType = breakType
		state.BreakStartTime = fromMillis(*session.BreakStartTime)
		state.BreakDuration = time.Duration(*session.BreakDuration) * time.Millisecond
		state.BreakID = timerState.BreakID
	case timerState.IsWorkTimerActive:
		state.Mode = ModeWorking
		if session.WorkStartTime != nil {
			state.WorkStartTime = fromMillis(*session.WorkStartTime)
		} else {
			state.WorkStartTime = now
		}
	default:
		state.Mode = ModePaused
	}
	// A working record without activity falls back to its start time during recovery.
	if state.LastActivityTime.IsZero() && state.Mode != ModeWorking {
		state.LastActivityTime = now
	}

	return state, nil
}

type recordKeys struct {
	timerState  string
	workSession string
}

// loadRecord reads both records. It returns storage.ErrNotFound when neither
// exists and ErrCorruptedState when only one exists or either fails to decode.
func loadRecord(ctx context.Context, store storage.Store, keys recordKeys) (Record, error) {
	stateData, stateErr := store.Get(ctx, keys.timerState)
	if stateErr != nil && !errors.Is(stateErr, storage.ErrNotFound) {
		return Record{}, fmt.Errorf("failed to load timer state: %w", stateErr)
	}
	sessionData, sessionErr := store.Get(ctx, keys.workSession)
	if sessionErr != nil && !errors.Is(sessionErr, storage.ErrNotFound) {
		return Record{}, fmt.Errorf("failed to load work session: %w", sessionErr)
	}

	stateMissing := errors.Is(stateErr, storage.ErrNotFound)
	sessionMissing := errors.Is(sessionErr, storage.ErrNotFound)
	if stateMissing && sessionMissing {
		return Record{}, storage.ErrNotFound
	}
	if stateMissing || sessionMissing {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptedState, ErrIncompleteRecords)
	}

	var record Record
	if err := json.Unmarshal(stateData, &record.TimerState); err != nil {
		return Record{}, fmt.Errorf("%w: timer state: %v", ErrCorruptedState, err)
	}
	if err := json.Unmarshal(sessionData, &record.WorkSession); err != nil {
		return Record{}, fmt.Errorf("%w: work session: %v", ErrCorruptedState, err)
	}
	return record, nil
}

func saveRecord(ctx context.Context, store storage.Store, keys recordKeys, record Record) error {
	stateData, err := json.Marshal(record.TimerState)
	if err != nil {
		return fmt.Errorf("failed to marshal timer state: %w", err)
	}
	sessionData, err := json.Marshal(record.WorkSession)
	if err != nil {
		return fmt.Errorf("failed to marshal work session: %w", err)
	}

	if err := store.Set(ctx, keys.workSession, sessionData); err != nil {
		return err
	}
	return store.Set(ctx, keys.timerState, stateData)
}

func removeRecord(ctx context.Context, store storage.Store, keys recordKeys) error {
	if err := store.Remove(ctx, keys.timerState); err != nil {
		return err
	}
	return store.Remove(ctx, keys.workSession)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// validThreshold reports whether a persisted threshold is a whole number of
// minutes in 1..1440. Anything else falls back to the settings default.
func validThreshold(threshold time.Duration) bool {
	return threshold%time.Minute == 0 &&
		threshold >= time.Minute &&
		threshold <= settings.MaxWorkThresholdMinutes*time.Minute
}
