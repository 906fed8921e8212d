// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"errors"

	"github.com/AccelByte/extend-break-timer/pkg/metrics"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
)

const (
	recoveryFresh          = "fresh"
	recoveryUnavailable    = "unavailable"
	recoveryCorrupted      = "corrupted"
	recoveryStale          = "stale"
	recoveryContinued      = "continued"
	recoveryPaused         = "paused"
	recoveryIdle           = "idle"
	recoveryBreakContinued = "break_continued"
	recoveryBreakExpired   = "break_expired"
	recoveryBreakCorrupted = "break_corrupted"
)

// recoverLocked rebuilds state from the store as if the process had never stopped.
//
// When the store cannot be reached the engine keeps running on in-memory
// state without checkpointing, and prepareLocked retries the load later so
// the persisted session is never overwritten with defaults.
func (e *Engine) recoverLocked(ctx context.Context) {
	now := e.deps.Clock.Now()

	loadCtx, cancel := context.WithTimeout(ctx, e.opts.CheckpointTimeout)
	record, err := loadRecord(loadCtx, e.deps.Store, e.keys)
	cancel()

	if err != nil && !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, ErrCorruptedState) {
		metrics.RecoveriesTotal.WithLabelValues(recoveryUnavailable).Inc()
		e.retryLoadAt = now.Add(e.opts.RecoveryRetryInterval)
		if e.loadPending {
			e.log.Debugf("store still unavailable, retrying timer state load at %v: %v", e.retryLoadAt, err)
			return
		}
		e.log.Warnf("store unavailable, running on in-memory timer state until it can be loaded: %v", err)
		e.loadPending = true
		e.state = freshState(now)
		e.state.WorkThreshold = e.defaultThreshold()
		return
	}

	var result string
	switch {
	case errors.Is(err, storage.ErrNotFound):
		e.state = freshState(now)
		result = recoveryFresh
	case errors.Is(err, ErrCorruptedState):
		e.log.Warnf("discarding persisted timer state: %v", err)
		e.state = freshState(now)
		result = recoveryCorrupted
	default:
		state, sanitizeErr := record.State(now)
		if sanitizeErr != nil {
			e.log.Warnf("discarding persisted timer state: %v", sanitizeErr)
			e.state = freshState(now)
			result = recoveryCorrupted
			break
		}
		e.state = state
		result = e.reconcileLocked()
	}
	if e.state.WorkThreshold == 0 {
		e.state.WorkThreshold = e.defaultThreshold()
	}
	e.loadPending = false

	metrics.RecoveriesTotal.WithLabelValues(result).Inc()
	e.log.Infof("timer recovered: %s, mode %s", result, e.state.Mode)

	e.cancelDeferredPauseLocked()
	if e.state.Mode == ModeWorking && !e.state.IsBrowserFocused {
		e.scheduleDeferredPauseLocked()
	}
	e.checkpointLocked()
}

// prepareLocked runs ahead of every operation. It retries a load that failed
// because the store was unavailable, then applies a debounced tab activation.
func (e *Engine) prepareLocked() {
	if e.loadPending && !e.deps.Clock.Now().Before(e.retryLoadAt) {
		e.recoverLocked(context.Background())
	}
	e.applyPendingTabLocked()
}

// reconcileLocked adjusts a loaded state for the time that passed while the
// process was stopped.
func (e *Engine) reconcileLocked() string {
	now := e.deps.Clock.Now()

	switch e.state.Mode {
	case ModeWorking:
		elapsed := now.Sub(e.state.WorkStartTime)
		if elapsed < 0 || elapsed > MaxWorkSegment {
			e.log.Warnf("implausible work segment of %v, resetting session", elapsed)
			e.restartSessionLocked()
			return recoveryCorrupted
		}
		lastSeen := latest(e.state.WorkStartTime, e.state.LastActivityTime)
		gap := now.Sub(lastSeen)
		if elapsed > e.opts.StaleSessionAfter || gap > e.opts.StaleSessionAfter {
			e.restartSessionLocked()
			return recoveryStale
		}
		if gap > e.opts.InactivityThreshold {
			e.state.LastActivityTime = lastSeen
			e.pauseAtLocked(lastSeen)
			return recoveryPaused
		}
		e.state.LastActivityTime = now
		return recoveryContinued

	case ModeOnBreak:
		elapsed := now.Sub(e.state.BreakStartTime)
		if elapsed < 0 || elapsed > MaxBreakElapsed {
			e.log.Warnf("implausible break elapsed time of %v, ending break", elapsed)
			e.endBreakLocked(now, OutcomeExpired)
			return recoveryBreakCorrupted
		}
		if elapsed >= e.state.BreakDuration {
			e.endBreakLocked(now, OutcomeExpired)
			return recoveryBreakExpired
		}
		return recoveryBreakContinued
	}

	return recoveryIdle
}

func (e *Engine) restartSessionLocked() {
	now := e.deps.Clock.Now()
	e.state.AccumulatedWorkTime = 0
	e.state.WorkStartTime = now
	e.state.LastActivityTime = now
}
