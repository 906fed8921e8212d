// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import "time"

// HandleBrowserFocusLost marks the browser unfocused and schedules a pause
// if focus stays lost for the inactivity threshold.
func (e *Engine) HandleBrowserFocusLost() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.prepareLocked()

	e.state.IsBrowserFocused = false
	if e.pausePending == nil {
		e.scheduleDeferredPauseLocked()
	}
	e.checkpointLocked()
}

// HandleBrowserFocusGained cancels any deferred pause and resumes a paused timer.
func (e *Engine) HandleBrowserFocusGained() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.prepareLocked()

	e.state.IsBrowserFocused = true
	e.cancelDeferredPauseLocked()
	if e.state.Mode == ModePaused {
		e.resumeAtLocked(e.deps.Clock.Now())
		e.log.Debugf("work timer resumed on focus")
	}
	e.checkpointLocked()
}

// HandleTabActivated records a tab switch. Bursts within the debounce window
// collapse into one activity stamped with the time of the latest switch.
func (e *Engine) HandleTabActivated(tabID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	e.tabID = tabID
	e.tabAt = e.deps.Clock.Now()
	if e.tabPending {
		return
	}
	e.tabPending = true
	e.tabToken++
	token := e.tabToken
	e.tabTimer = e.deps.Clock.AfterFunc(e.opts.TabDebounce, func() {
		e.flushTab(token)
	})
}

// CheckLiveness pauses a working timer that has seen no activity for longer
// than the inactivity threshold. The idle gap is not counted as work.
func (e *Engine) CheckLiveness() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.prepareLocked()

	now := e.deps.Clock.Now()
	if e.state.Mode == ModeWorking && now.Sub(e.state.LastActivityTime) > e.opts.InactivityThreshold {
		closedAt := latest(e.state.LastActivityTime, e.state.WorkStartTime)
		e.pauseAtLocked(closedAt)
		e.log.Infof("work timer paused after %v of inactivity", now.Sub(closedAt).Round(time.Second))
		e.checkpointLocked()
		return
	}
	if e.checkThresholdLocked(now) {
		e.checkpointLocked()
	}
}

func (e *Engine) flushTab(token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || token != e.tabToken {
		return
	}
	e.applyPendingTabLocked()
}

// applyPendingTabLocked applies a debounced tab activation so that it is
// ordered before whatever operation runs next.
func (e *Engine) applyPendingTabLocked() {
	if !e.tabPending {
		return
	}
	e.tabPending = false
	e.tabToken++
	if e.tabTimer != nil {
		e.tabTimer.Stop()
		e.tabTimer = nil
	}
	e.log.Debugf("tab %s activated", e.tabID)
	e.activityLocked(e.tabAt)
}

func (e *Engine) scheduleDeferredPauseLocked() {
	e.cancelDeferredPauseLocked()
	token := e.pauseToken
	e.pausePending = e.deps.Clock.AfterFunc(e.opts.InactivityThreshold, func() {
		e.deferredPause(token)
	})
}

// cancelDeferredPauseLocked stops the pending pause and invalidates any
// callback that already started.
func (e *Engine) cancelDeferredPauseLocked() {
	if e.pausePending != nil {
		e.pausePending.Stop()
		e.pausePending = nil
	}
	e.pauseToken++
}

func (e *Engine) deferredPause(token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || token != e.pauseToken {
		return
	}
	e.pausePending = nil
	e.applyPendingTabLocked()

	if e.state.IsBrowserFocused || e.state.Mode != ModeWorking {
		return
	}
	e.pauseAtLocked(e.deps.Clock.Now())
	e.log.Infof("work timer paused after browser focus was lost for %v", e.opts.InactivityThreshold)
	e.checkpointLocked()
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
