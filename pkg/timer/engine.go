// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/AccelByte/extend-break-timer/pkg/metrics"
	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
)

// SettingsProvider supplies preferences shared by every user. Current is read
// on every evaluation; its work threshold only seeds users that have none.
type SettingsProvider interface {
	Current() settings.Settings
}

// Dependencies are the collaborators an Engine is constructed with.
type Dependencies struct {
	Store    storage.Store
	Settings SettingsProvider
	Clock    Clock
}

// Engine is the work/break state machine for a single user.
//
// All entry points are serialized by one mutex. State transitions are applied
// in memory first; checkpoints to the store run asynchronously and never block
// the caller.
type Engine struct {
	userID string
	deps   Dependencies
	opts   Options
	keys   recordKeys
	log    *logrus.Entry

	mu          sync.Mutex
	state       State
	started     bool
	stopped     bool
	subscribers []chan Intent

	loadPending bool
	retryLoadAt time.Time

	pausePending Timer
	pauseToken   uint64

	tabTimer   Timer
	tabToken   uint64
	tabPending bool
	tabID      string
	tabAt      time.Time

	saveSeq    uint64
	saveMu     sync.Mutex
	savedSeq   uint64
	flushMu    sync.Mutex
	flushed    *sync.Cond
	inflight   int
	failureLog rate.Sometimes
}

// New creates an engine for userID. Missing dependencies fall back to an
// in-memory store, default settings and the system clock.
func New(userID string, deps Dependencies, opts Options) (*Engine, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	if deps.Settings == nil {
		deps.Settings = settings.NewProvider(settings.Default())
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	opts = opts.withDefaults()

	engine := &Engine{
		userID: userID,
		deps:   deps,
		opts:   opts,
		keys: recordKeys{
			timerState:  opts.TimerStateKey(userID),
			workSession: opts.WorkSessionKey(userID),
		},
		log:        logrus.WithField("user_id", userID),
		state:      freshState(deps.Clock.Now()),
		failureLog: rate.Sometimes{First: 1, Interval: time.Minute},
	}
	engine.state.WorkThreshold = engine.defaultThreshold()
	engine.flushed = sync.NewCond(&engine.flushMu)
	return engine, nil
}

// UserID returns the user this engine tracks.
func (e *Engine) UserID() string {
	return e.userID
}

// Subscribe registers a new intent channel. Sends never block; intents are
// dropped for subscribers whose buffer is full.
func (e *Engine) Subscribe(buffer int) <-chan Intent {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Intent, buffer)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		close(ch)
		return ch
	}
	e.subscribers = append(e.subscribers, ch)
	return ch
}

// Start loads persisted state, reconciles it with the current time and
// checkpoints the result. Calling Start more than once has no effect.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	e.recoverLocked(ctx)
}

// Stop cancels scheduled callbacks, waits for pending checkpoints and closes
// subscriber channels.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.applyPendingTabLocked()
	e.cancelDeferredPauseLocked()
	e.stopped = true
	subscribers := e.subscribers
	e.subscribers = nil
	e.mu.Unlock()

	e.Flush()
	for _, ch := range subscribers {
		close(ch)
	}
}

// Flush blocks until every checkpoint issued so far has finished.
func (e *Engine) Flush() {
	e.flushMu.Lock()
	for e.inflight > 0 {
		e.flushed.Wait()
	}
	e.flushMu.Unlock()
}

// StartWorkTimer begins a fresh work session. It is rejected while on break.
func (e *Engine) StartWorkTimer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	if e.state.Mode == ModeOnBreak {
		e.log.Warnf("cannot start work timer: %v", ErrOnBreak)
		return false
	}

	now := e.deps.Clock.Now()
	e.state.AccumulatedWorkTime = 0
	e.state.WorkStartTime = now
	e.state.LastActivityTime = now
	e.transitionLocked(ModeWorking)
	e.log.Infof("work timer started")
	e.checkpointLocked()
	return true
}

// PauseWorkTimer closes the open work segment.
func (e *Engine) PauseWorkTimer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	switch e.state.Mode {
	case ModeOnBreak:
		e.log.Warnf("cannot pause work timer: %v", ErrOnBreak)
		return false
	case ModePaused:
		e.log.Warnf("cannot pause work timer: %v", ErrAlreadyInMode)
		return false
	}

	e.pauseAtLocked(e.deps.Clock.Now())
	e.log.Infof("work timer paused")
	e.checkpointLocked()
	return true
}

// ResumeWorkTimer opens a new work segment.
func (e *Engine) ResumeWorkTimer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	switch e.state.Mode {
	case ModeOnBreak:
		e.log.Warnf("cannot resume work timer: %v", ErrOnBreak)
		return false
	case ModeWorking:
		e.log.Warnf("cannot resume work timer: %v", ErrAlreadyInMode)
		return false
	}

	e.resumeAtLocked(e.deps.Clock.Now())
	e.log.Infof("work timer resumed")
	e.checkpointLocked()
	return true
}

// ResetWorkTimer zeroes accumulated work and starts a fresh session without
// recording a break. An active break is ended with OutcomeReset.
func (e *Engine) ResetWorkTimer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	now := e.deps.Clock.Now()
	if e.state.Mode == ModeOnBreak {
		e.finishBreakLocked(now, OutcomeReset)
	}
	e.state.AccumulatedWorkTime = 0
	e.state.WorkStartTime = now
	e.state.LastActivityTime = now
	e.transitionLocked(ModeWorking)
	e.log.Infof("work timer reset")
	e.checkpointLocked()
	return true
}

// StartBreak begins a break of the given type. minutes must be in (0, 240];
// zero selects the configured duration for the break type.
func (e *Engine) StartBreak(breakType BreakType, minutes float64) bool {
	if !breakType.Valid() {
		e.log.Warnf("cannot start break: %v %q", ErrInvalidBreakType, breakType)
		return false
	}
	if !ValidBreakMinutes(minutes) {
		e.log.Warnf("cannot start break: %v %v", ErrInvalidDuration, minutes)
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	if e.state.Mode == ModeOnBreak {
		e.log.Warnf("cannot start break: %v", ErrOnBreak)
		return false
	}
	if minutes == 0 {
		minutes = float64(e.deps.Settings.Current().BreakMinutes(string(breakType)))
		if minutes <= 0 {
			e.log.Warnf("cannot start break: %v for %s", ErrInvalidDuration, breakType)
			return false
		}
	}

	now := e.deps.Clock.Now()
	if e.state.Mode == ModeWorking {
		e.pauseAtLocked(now)
	}
	e.state.BreakType = breakType
	e.state.BreakStartTime = now
	e.state.BreakDuration = time.Duration(minutes * float64(time.Minute))
	e.state.BreakID = uuid.NewString()
	e.transitionLocked(ModeOnBreak)

	e.emitLocked(Intent{
		Type:          IntentBreakStarted,
		BreakType:     breakType,
		BreakDuration: e.state.BreakDuration,
		BreakID:       e.state.BreakID,
		At:            now,
	})
	metrics.BreaksStartedTotal.WithLabelValues(string(breakType)).Inc()
	e.log.Infof("%s break started for %v (break %s)", breakType, e.state.BreakDuration, e.state.BreakID)
	e.checkpointLocked()
	return true
}

// EndBreak completes the current break and starts a fresh work session.
// The engine never ends a break on its own; the owner of the countdown calls this.
func (e *Engine) EndBreak() bool {
	return e.endBreak(OutcomeCompleted)
}

// CancelBreak has the same effect as EndBreak but reports OutcomeCancelled.
func (e *Engine) CancelBreak() bool {
	return e.endBreak(OutcomeCancelled)
}

func (e *Engine) endBreak(outcome BreakOutcome) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	if e.state.Mode != ModeOnBreak {
		e.log.Warnf("cannot end break: %v", ErrNotOnBreak)
		return false
	}
	e.endBreakLocked(e.deps.Clock.Now(), outcome)
	e.checkpointLocked()
	return true
}

// UpdateActivity records a user activity signal.
func (e *Engine) UpdateActivity() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.prepareLocked()
	e.activityLocked(e.deps.Clock.Now())
}

// UpdateWorkTimeThreshold sets this user's work threshold in whole minutes (1..1440).
func (e *Engine) UpdateWorkTimeThreshold(minutes float64) bool {
	if !ValidThresholdMinutes(minutes) {
		e.log.Warnf("rejected work threshold %v: %v", minutes, ErrInvalidThreshold)
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false
	}
	e.prepareLocked()

	e.state.WorkThreshold = time.Duration(minutes) * time.Minute
	e.log.Infof("work threshold set to %d minutes", int(minutes))
	e.checkThresholdLocked(e.deps.Clock.Now())
	e.checkpointLocked()
	return true
}

// GetTimerStatus returns a snapshot of the timer. It does not mutate state.
func (e *Engine) GetTimerStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.deps.Clock.Now()
	threshold := e.thresholdLocked()
	current := e.state.CurrentWorkTime(now)
	return Status{
		Mode:                e.state.Mode,
		CurrentWorkTime:     current,
		WorkThreshold:       threshold,
		IsThresholdExceeded: current >= threshold,
		RemainingBreakTime:  e.state.RemainingBreakTime(now),
		BreakType:           e.state.BreakType,
		BreakDuration:       e.state.BreakDuration,
		BreakID:             e.state.BreakID,
		LastActivityTime:    e.state.LastActivityTime,
		IsBrowserFocused:    e.state.IsBrowserFocused,
	}
}

// Snapshot returns a copy of the raw engine state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ValidBreakMinutes reports whether minutes is an acceptable break length.
// Zero is accepted and selects the configured duration.
func ValidBreakMinutes(minutes float64) bool {
	return !math.IsNaN(minutes) && !math.IsInf(minutes, 0) && minutes >= 0 && minutes <= MaxBreakMinutes
}

// ValidThresholdMinutes reports whether minutes is a whole number in 1..1440.
func ValidThresholdMinutes(minutes float64) bool {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes != math.Trunc(minutes) {
		return false
	}
	return minutes >= 1 && minutes <= settings.MaxWorkThresholdMinutes
}

func (e *Engine) thresholdLocked() time.Duration {
	if e.state.WorkThreshold > 0 {
		return e.state.WorkThreshold
	}
	return e.defaultThreshold()
}

func (e *Engine) defaultThreshold() time.Duration {
	return time.Duration(e.deps.Settings.Current().WorkThresholdMinutes) * time.Minute
}

func (e *Engine) transitionLocked(to Mode) {
	from := e.state.Mode
	e.state.Mode = to
	if from != to {
		metrics.StateTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	}
}

// pauseAtLocked closes the open segment at the given time.
func (e *Engine) pauseAtLocked(at time.Time) {
	if !e.state.WorkStartTime.IsZero() && at.After(e.state.WorkStartTime) {
		e.state.AccumulatedWorkTime += at.Sub(e.state.WorkStartTime)
	}
	e.state.WorkStartTime = time.Time{}
	e.transitionLocked(ModePaused)
}

func (e *Engine) resumeAtLocked(at time.Time) {
	e.state.WorkStartTime = at
	if at.After(e.state.LastActivityTime) {
		e.state.LastActivityTime = at
	}
	e.transitionLocked(ModeWorking)
}

func (e *Engine) endBreakLocked(now time.Time, outcome BreakOutcome) {
	e.finishBreakLocked(now, outcome)
	e.state.AccumulatedWorkTime = 0
	e.state.WorkStartTime = now
	e.state.LastActivityTime = now
	e.transitionLocked(ModeWorking)
}

// finishBreakLocked emits BreakEnded and clears the break fields.
func (e *Engine) finishBreakLocked(now time.Time, outcome BreakOutcome) {
	e.emitLocked(Intent{
		Type:          IntentBreakEnded,
		BreakType:     e.state.BreakType,
		BreakDuration: e.state.BreakDuration,
		BreakID:       e.state.BreakID,
		Outcome:       outcome,
		At:            now,
	})
	metrics.BreaksEndedTotal.WithLabelValues(string(e.state.BreakType), string(outcome)).Inc()
	e.log.Infof("%s break ended: %s (break %s)", e.state.BreakType, outcome, e.state.BreakID)
	e.state.clearBreak()
}

func (e *Engine) activityLocked(at time.Time) {
	if at.After(e.state.LastActivityTime) {
		e.state.LastActivityTime = at
	}
	if e.state.Mode == ModePaused && e.state.IsBrowserFocused {
		e.resumeAtLocked(at)
		e.log.Debugf("work timer resumed on activity")
	}
	e.checkThresholdLocked(at)
	e.checkpointLocked()
}

// checkThresholdLocked emits BreakThresholdReached when the threshold is
// crossed, at most once per cooldown. It reports whether an intent was emitted.
func (e *Engine) checkThresholdLocked(now time.Time) bool {
	if e.state.Mode != ModeWorking {
		return false
	}
	current := e.state.CurrentWorkTime(now)
	if current < e.thresholdLocked() {
		return false
	}
	if !e.deps.Settings.Current().NotificationsEnabled {
		return false
	}
	last := e.state.LastNotificationTime
	if !last.IsZero() && now.Sub(last) < e.opts.NotificationCooldown {
		return false
	}

	e.state.LastNotificationTime = now
	e.emitLocked(Intent{
		Type:     IntentBreakThresholdReached,
		WorkTime: current,
		At:       now,
	})
	metrics.ThresholdNotificationsTotal.Inc()
	e.log.Infof("break threshold reached after %v of work", current.Round(time.Second))
	return true
}

func (e *Engine) emitLocked(intent Intent) {
	intent.UserID = e.userID
	if intent.At.IsZero() {
		intent.At = e.deps.Clock.Now()
	}
	for _, ch := range e.subscribers {
		select {
		case ch <- intent:
		default:
			e.log.Debugf("dropped %s intent for slow subscriber", intent.Type)
		}
	}
}

// checkpointLocked snapshots the state and writes it in the background. It is
// a no-op while the persisted state has not been loaded yet.
// Writes carry a sequence number so an older snapshot never replaces a newer one.
func (e *Engine) checkpointLocked() {
	if e.loadPending {
		return
	}
	e.saveSeq++
	seq := e.saveSeq
	record := newRecord(e.state, e.thresholdLocked())

	e.flushMu.Lock()
	e.inflight++
	e.flushMu.Unlock()

	go func() {
		defer e.saveDone()
		e.save(seq, record)
	}()
}

func (e *Engine) save(seq uint64, record Record) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if seq <= e.savedSeq {
		return
	}
	e.savedSeq = seq

	ctx, cancel := context.WithTimeout(context.Background(), e.opts.CheckpointTimeout)
	defer cancel()
	if err := saveRecord(ctx, e.deps.Store, e.keys, record); err != nil {
		metrics.CheckpointFailuresTotal.Inc()
		e.failureLog.Do(func() {
			e.log.Warnf("failed to checkpoint timer state, continuing in memory: %v", err)
		})
	}
}

func (e *Engine) saveDone() {
	e.flushMu.Lock()
	e.inflight--
	if e.inflight == 0 {
		e.flushed.Broadcast()
	}
	e.flushMu.Unlock()
}
