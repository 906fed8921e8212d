// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-break-timer/pkg/settings"
)

func TestNew_RequiresUserID(t *testing.T) {
	_, err := New("", Dependencies{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestEngine_FreshStartIsWorking(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	status := engine.GetTimerStatus()
	assert.Equal(t, ModeWorking, status.Mode)
	assert.Equal(t, time.Duration(0), status.CurrentWorkTime)
	assert.Equal(t, 30*time.Minute, status.WorkThreshold)
	assert.False(t, status.IsThresholdExceeded)
	assert.True(t, status.IsBrowserFocused)
	assert.Empty(t, status.BreakType)
}

func TestEngine_WorkTimeMonotonicAcrossPauseResume(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	steps := []struct {
		op      func() bool
		advance time.Duration
	}{
		{op: nil, advance: 3 * time.Minute},
		{op: engine.PauseWorkTimer, advance: 2 * time.Minute},
		{op: engine.ResumeWorkTimer, advance: 4 * time.Minute},
		{op: engine.PauseWorkTimer, advance: time.Minute},
		{op: engine.PauseWorkTimer, advance: time.Minute},
		{op: engine.ResumeWorkTimer, advance: time.Minute},
		{op: engine.ResumeWorkTimer, advance: 30 * time.Second},
	}

	previous := engine.GetTimerStatus().CurrentWorkTime
	for i, step := range steps {
		if step.op != nil {
			step.op()
		}
		before := engine.GetTimerStatus()
		env.clock.Advance(step.advance)
		after := engine.GetTimerStatus()

		require.GreaterOrEqual(t, before.CurrentWorkTime, previous, "step %d", i)
		if after.Mode == ModeWorking {
			require.Equal(t, before.CurrentWorkTime+step.advance, after.CurrentWorkTime, "step %d", i)
		} else {
			require.Equal(t, before.CurrentWorkTime, after.CurrentWorkTime, "step %d", i)
		}
		previous = after.CurrentWorkTime
	}

	// 3m + 4m + 1m + 30s of working segments.
	assert.Equal(t, 8*time.Minute+30*time.Second, engine.GetTimerStatus().CurrentWorkTime)
}

func TestEngine_DoubleTransitionsRejected(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	assert.False(t, engine.ResumeWorkTimer())
	assert.True(t, engine.PauseWorkTimer())
	assert.False(t, engine.PauseWorkTimer())
	assert.False(t, engine.EndBreak())
	assert.False(t, engine.CancelBreak())

	require.True(t, engine.StartBreak(BreakShort, 5))
	assert.False(t, engine.StartBreak(BreakLong, 20))
	assert.False(t, engine.PauseWorkTimer())
	assert.False(t, engine.ResumeWorkTimer())
	assert.False(t, engine.StartWorkTimer())
	assert.Equal(t, ModeOnBreak, engine.GetTimerStatus().Mode)
	assert.Equal(t, BreakShort, engine.GetTimerStatus().BreakType)
}

func TestEngine_StartBreakThenEndBreakResetsWork(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	env.clock.Advance(12 * time.Minute)
	require.True(t, engine.StartBreak(BreakMedium, 10))

	snapshot := engine.Snapshot()
	assert.Equal(t, 12*time.Minute, snapshot.AccumulatedWorkTime)
	assert.True(t, snapshot.WorkStartTime.IsZero())

	require.True(t, engine.EndBreak())
	snapshot = engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, time.Duration(0), snapshot.AccumulatedWorkTime)
	assert.True(t, snapshot.WorkStartTime.Equal(env.clock.Now()))
	assert.Empty(t, snapshot.BreakType)
	assert.Empty(t, snapshot.BreakID)
	assert.True(t, snapshot.BreakStartTime.IsZero())
	assert.Equal(t, time.Duration(0), snapshot.BreakDuration)

	received := drain(intents)
	started := ofType(received, IntentBreakStarted)
	ended := ofType(received, IntentBreakEnded)
	require.Len(t, started, 1)
	require.Len(t, ended, 1)
	assert.Equal(t, BreakMedium, started[0].BreakType)
	assert.Equal(t, 10*time.Minute, started[0].BreakDuration)
	assert.NotEmpty(t, started[0].BreakID)
	assert.Equal(t, started[0].BreakID, ended[0].BreakID)
	assert.Equal(t, OutcomeCompleted, ended[0].Outcome)
	assert.Equal(t, "user-1", ended[0].UserID)
}

func TestEngine_CancelBreakReportsOutcome(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	require.True(t, engine.StartBreak(BreakLong, 20))
	env.clock.Advance(time.Minute)
	require.True(t, engine.CancelBreak())

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, time.Duration(0), snapshot.AccumulatedWorkTime)

	ended := ofType(drain(intents), IntentBreakEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, OutcomeCancelled, ended[0].Outcome)
	assert.Equal(t, BreakLong, ended[0].BreakType)
}

func TestEngine_StartBreakValidation(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	tests := []struct {
		name      string
		breakType BreakType
		minutes   float64
	}{
		{name: "unknown type", breakType: "huge", minutes: 5},
		{name: "empty type", breakType: "", minutes: 5},
		{name: "negative minutes", breakType: BreakShort, minutes: -1},
		{name: "nan minutes", breakType: BreakShort, minutes: math.NaN()},
		{name: "infinite minutes", breakType: BreakShort, minutes: math.Inf(1)},
		{name: "too long", breakType: BreakLong, minutes: MaxBreakMinutes + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, engine.StartBreak(tt.breakType, tt.minutes))
			assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)
		})
	}
	assert.Empty(t, drain(intents))
}

func TestEngine_StartBreakUsesConfiguredDuration(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	require.True(t, engine.StartBreak(BreakMedium, 0))
	status := engine.GetTimerStatus()
	assert.Equal(t, 10*time.Minute, status.BreakDuration)
	assert.Equal(t, 10*time.Minute, status.RemainingBreakTime)
}

func TestEngine_StartBreakFromPaused(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	env.clock.Advance(4 * time.Minute)
	require.True(t, engine.PauseWorkTimer())
	env.clock.Advance(10 * time.Minute)
	require.True(t, engine.StartBreak(BreakShort, 5))

	assert.Equal(t, 4*time.Minute, engine.Snapshot().AccumulatedWorkTime)
}

func TestEngine_BreakCountdownScenario(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	require.True(t, engine.StartBreak(BreakShort, 5))

	env.clock.Advance(2 * time.Minute)
	assert.Equal(t, 3*time.Minute, engine.GetTimerStatus().RemainingBreakTime)

	env.clock.Advance(4 * time.Minute)
	engine.CheckLiveness()
	status := engine.GetTimerStatus()
	assert.Equal(t, time.Duration(0), status.RemainingBreakTime)
	assert.Equal(t, ModeOnBreak, status.Mode)

	require.True(t, engine.EndBreak())
	assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)
}

func TestEngine_ThresholdScenario(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	require.True(t, engine.StartWorkTimer())
	env.clock.Advance(31 * time.Minute)

	status := engine.GetTimerStatus()
	assert.True(t, status.IsThresholdExceeded)
	assert.Equal(t, 31*time.Minute, status.CurrentWorkTime)
}

func TestEngine_ThresholdNotificationCooldown(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	env.clock.Advance(30 * time.Minute)
	for i := 0; i < 1000; i++ {
		engine.UpdateActivity()
		env.clock.Advance(100 * time.Millisecond)
	}

	reached := ofType(drain(intents), IntentBreakThresholdReached)
	require.Len(t, reached, 1)
	assert.Equal(t, 30*time.Minute, reached[0].WorkTime)
	assert.Equal(t, "user-1", reached[0].UserID)

	// 1000 * 100ms has passed; the next tick after the cooldown notifies again.
	env.clock.Advance(5*time.Minute - 100*time.Second)
	engine.UpdateActivity()
	reached = ofType(drain(intents), IntentBreakThresholdReached)
	require.Len(t, reached, 1)
	assert.Equal(t, 35*time.Minute, reached[0].WorkTime)
}

func TestEngine_ThresholdCheckedOnLiveness(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	for elapsed := time.Duration(0); elapsed < 31*time.Minute; elapsed += 30 * time.Second {
		env.clock.Advance(30 * time.Second)
		if elapsed%(4*time.Minute) == 0 {
			engine.UpdateActivity()
		}
		engine.CheckLiveness()
	}

	assert.Len(t, ofType(drain(intents), IntentBreakThresholdReached), 1)
	assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)
}

func TestEngine_NotificationsDisabledSuppressesThresholdIntent(t *testing.T) {
	env := newTestEnv()
	prefs := settings.Default()
	prefs.NotificationsEnabled = false
	env.settings.Replace(prefs)
	engine, intents := env.startEngine(t, "user-1")

	env.clock.Advance(31 * time.Minute)
	engine.UpdateActivity()

	assert.True(t, engine.GetTimerStatus().IsThresholdExceeded)
	assert.Empty(t, ofType(drain(intents), IntentBreakThresholdReached))
}

func TestEngine_NewUserSeedsThresholdFromSettings(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.settings.SetWorkThresholdMinutes(15))
	engine, _ := env.startEngine(t, "user-1")

	env.clock.Advance(20 * time.Minute)
	status := engine.GetTimerStatus()
	assert.True(t, status.IsThresholdExceeded)
	assert.Equal(t, 15*time.Minute, status.WorkThreshold)

	require.NoError(t, env.settings.SetWorkThresholdMinutes(50))
	assert.Equal(t, 15*time.Minute, engine.GetTimerStatus().WorkThreshold)

	other, _ := env.startEngine(t, "user-2")
	assert.Equal(t, 50*time.Minute, other.GetTimerStatus().WorkThreshold)
}

func TestEngine_UpdateWorkTimeThreshold(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	for _, invalid := range []float64{-5, 0, 3.5, 1441, math.NaN(), math.Inf(1)} {
		assert.False(t, engine.UpdateWorkTimeThreshold(invalid), "threshold %v", invalid)
	}
	assert.Equal(t, 30*time.Minute, engine.GetTimerStatus().WorkThreshold)

	require.True(t, engine.UpdateWorkTimeThreshold(45))
	assert.Equal(t, 45*time.Minute, engine.GetTimerStatus().WorkThreshold)
	assert.Equal(t, 45*time.Minute, engine.Snapshot().WorkThreshold)
	assert.Equal(t, 30, env.settings.Current().WorkThresholdMinutes, "shared default must not change")

	engine.Flush()
	assert.Equal(t, (45 * time.Minute).Milliseconds(), env.load(t, "user-1").TimerState.WorkTimeThreshold)
}

func TestEngine_UserThresholdDrivesNotification(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")
	require.True(t, engine.UpdateWorkTimeThreshold(45))

	env.clock.Advance(35 * time.Minute)
	engine.UpdateActivity()
	assert.Empty(t, ofType(drain(intents), IntentBreakThresholdReached))

	env.clock.Advance(10 * time.Minute)
	engine.UpdateActivity()
	assert.Len(t, ofType(drain(intents), IntentBreakThresholdReached), 1)
}

func TestEngine_LoweringThresholdNotifies(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	env.clock.Advance(20 * time.Minute)
	require.True(t, engine.UpdateWorkTimeThreshold(10))
	assert.Len(t, ofType(drain(intents), IntentBreakThresholdReached), 1)
}

func TestEngine_ResetWorkTimer(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")

	env.clock.Advance(25 * time.Minute)
	require.True(t, engine.PauseWorkTimer())
	require.True(t, engine.ResetWorkTimer())

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.Equal(t, time.Duration(0), snapshot.AccumulatedWorkTime)
	assert.True(t, snapshot.WorkStartTime.Equal(env.clock.Now()))
	assert.Empty(t, drain(intents))

	require.True(t, engine.StartBreak(BreakShort, 5))
	require.True(t, engine.ResetWorkTimer())
	assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)

	ended := ofType(drain(intents), IntentBreakEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, OutcomeReset, ended[0].Outcome)
}

func TestEngine_StartWorkTimerBeginsFreshSession(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	env.clock.Advance(10 * time.Minute)
	require.True(t, engine.PauseWorkTimer())
	require.True(t, engine.StartWorkTimer())

	env.clock.Advance(time.Minute)
	assert.Equal(t, time.Minute, engine.GetTimerStatus().CurrentWorkTime)
}

func TestEngine_FocusLostAndRegainedWithinThresholdNeverPauses(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	engine.HandleBrowserFocusLost()
	assert.False(t, engine.GetTimerStatus().IsBrowserFocused)
	env.clock.Advance(4*time.Minute + 59*time.Second)
	engine.CheckLiveness()
	assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)

	engine.HandleBrowserFocusGained()
	assert.Equal(t, 0, env.clock.pending())

	env.clock.Advance(time.Minute)
	status := engine.GetTimerStatus()
	assert.Equal(t, ModeWorking, status.Mode)
	assert.True(t, status.IsBrowserFocused)
	assert.Equal(t, 5*time.Minute+59*time.Second, status.CurrentWorkTime)
}

func TestEngine_FocusLostPausesAfterInactivityThreshold(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	engine.HandleBrowserFocusLost()
	env.clock.Advance(3 * time.Minute)
	engine.HandleBrowserFocusLost()
	env.clock.Advance(2 * time.Minute)

	status := engine.GetTimerStatus()
	assert.Equal(t, ModePaused, status.Mode)
	assert.Equal(t, 5*time.Minute, status.CurrentWorkTime)

	// Activity while unfocused does not resume.
	engine.UpdateActivity()
	assert.Equal(t, ModePaused, engine.GetTimerStatus().Mode)

	engine.HandleBrowserFocusGained()
	assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)
}

func TestEngine_FocusGainedDoesNotEndBreak(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	require.True(t, engine.StartBreak(BreakShort, 5))
	engine.HandleBrowserFocusLost()
	env.clock.Advance(6 * time.Minute)
	engine.HandleBrowserFocusGained()

	assert.Equal(t, ModeOnBreak, engine.GetTimerStatus().Mode)
}

func TestEngine_ActivityResumesWhenFocused(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	require.True(t, engine.PauseWorkTimer())
	env.clock.Advance(time.Minute)
	engine.UpdateActivity()

	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.True(t, snapshot.WorkStartTime.Equal(env.clock.Now()))
	assert.True(t, snapshot.LastActivityTime.Equal(env.clock.Now()))
}

func TestEngine_ActivityDoesNotEndBreak(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	require.True(t, engine.StartBreak(BreakShort, 5))
	engine.UpdateActivity()
	engine.HandleTabActivated("tab-1")
	env.clock.Advance(time.Second)

	assert.Equal(t, ModeOnBreak, engine.GetTimerStatus().Mode)
}

func TestEngine_TabActivationsDebounced(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")
	require.True(t, engine.PauseWorkTimer())

	engine.HandleTabActivated("tab-a")
	env.clock.Advance(30 * time.Millisecond)
	engine.HandleTabActivated("tab-b")
	env.clock.Advance(30 * time.Millisecond)
	engine.HandleTabActivated("tab-c")
	lastTabAt := env.clock.Now()

	assert.Equal(t, ModePaused, engine.GetTimerStatus().Mode)
	assert.Equal(t, 1, env.clock.pending())

	env.clock.Advance(100 * time.Millisecond)
	snapshot := engine.Snapshot()
	assert.Equal(t, ModeWorking, snapshot.Mode)
	assert.True(t, snapshot.WorkStartTime.Equal(lastTabAt))
	assert.True(t, snapshot.LastActivityTime.Equal(lastTabAt))
	assert.Equal(t, 0, env.clock.pending())
}

func TestEngine_PendingTabAppliedBeforeNextOperation(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")
	require.True(t, engine.PauseWorkTimer())

	engine.HandleTabActivated("tab-a")
	env.clock.Advance(10 * time.Millisecond)

	// The tab activation resumes first, so the pause succeeds.
	require.True(t, engine.PauseWorkTimer())
	assert.Equal(t, ModePaused, engine.GetTimerStatus().Mode)
	assert.Equal(t, 10*time.Millisecond, engine.Snapshot().AccumulatedWorkTime)

	env.clock.Advance(time.Second)
	assert.Equal(t, ModePaused, engine.GetTimerStatus().Mode)
}

func TestEngine_LivenessPausesAtLastActivity(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	env.clock.Advance(2 * time.Minute)
	engine.UpdateActivity()
	env.clock.Advance(5 * time.Minute)
	engine.CheckLiveness()
	assert.Equal(t, ModeWorking, engine.GetTimerStatus().Mode)

	env.clock.Advance(time.Minute)
	engine.CheckLiveness()

	status := engine.GetTimerStatus()
	assert.Equal(t, ModePaused, status.Mode)
	assert.Equal(t, 2*time.Minute, status.CurrentWorkTime)
}

func TestEngine_CheckpointsLatestState(t *testing.T) {
	env := newTestEnv()
	engine, _ := env.startEngine(t, "user-1")

	for i := 0; i < 50; i++ {
		env.clock.Advance(time.Second)
		if i%2 == 0 {
			engine.PauseWorkTimer()
		} else {
			engine.ResumeWorkTimer()
		}
	}
	require.True(t, engine.StartBreak(BreakLong, 15))
	engine.Flush()

	record := env.load(t, "user-1")
	assert.True(t, record.TimerState.IsOnBreak)
	assert.False(t, record.TimerState.IsWorkTimerActive)
	require.NotNil(t, record.TimerState.BreakType)
	assert.Equal(t, "long", *record.TimerState.BreakType)
	assert.Equal(t, engine.Snapshot().BreakID, record.TimerState.BreakID)
	require.NotNil(t, record.WorkSession.BreakDuration)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), *record.WorkSession.BreakDuration)
	assert.Nil(t, record.WorkSession.WorkStartTime)
	assert.Equal(t, engine.Snapshot().AccumulatedWorkTime.Milliseconds(), record.WorkSession.TotalWorkTime)
}

func TestEngine_StorageUnavailableKeepsRunning(t *testing.T) {
	clock := newFakeClock()
	engine, err := New("user-1", Dependencies{Store: failingStore{}, Clock: clock}, Options{})
	require.NoError(t, err)
	engine.Start(context.Background())
	defer engine.Stop()

	clock.Advance(time.Minute)
	assert.True(t, engine.PauseWorkTimer())
	assert.True(t, engine.ResumeWorkTimer())
	assert.True(t, engine.StartBreak(BreakShort, 5))
	engine.Flush()

	assert.Equal(t, ModeOnBreak, engine.GetTimerStatus().Mode)
}

func TestEngine_StoppedRejectsOperations(t *testing.T) {
	env := newTestEnv()
	engine, intents := env.startEngine(t, "user-1")
	engine.Stop()

	assert.False(t, engine.PauseWorkTimer())
	assert.False(t, engine.StartBreak(BreakShort, 5))
	engine.UpdateActivity()

	_, open := <-intents
	assert.False(t, open)
}
