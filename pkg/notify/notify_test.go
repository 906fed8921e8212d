// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

type recordingNotifier struct {
	id  string
	err error

	mu      sync.Mutex
	intents []timer.Intent
}

func (n *recordingNotifier) ID() string {
	return n.id
}

func (n *recordingNotifier) Notify(ctx context.Context, intent timer.Intent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = append(n.intents, intent)
	return n.err
}

func (n *recordingNotifier) received() []timer.Intent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]timer.Intent(nil), n.intents...)
}

func thresholdIntent() timer.Intent {
	return timer.Intent{
		Type:     timer.IntentBreakThresholdReached,
		UserID:   "user-1",
		WorkTime: 31 * time.Minute,
		At:       time.UnixMilli(1_760_000_000_000),
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&recordingNotifier{id: "b"}))
	require.NoError(t, registry.Register(&recordingNotifier{id: "a"}))
	assert.Error(t, registry.Register(&recordingNotifier{id: "a"}))
	assert.Equal(t, 2, registry.Count())

	all := registry.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID())
	assert.Equal(t, "b", all[1].ID())

	assert.NotNil(t, registry.Get("a"))
	require.NoError(t, registry.Unregister("a"))
	assert.Nil(t, registry.Get("a"))
	assert.Error(t, registry.Unregister("a"))
}

func TestDispatcher_DeliversToAllNotifiers(t *testing.T) {
	registry := NewRegistry()
	failing := &recordingNotifier{id: "failing", err: errors.New("boom")}
	healthy := &recordingNotifier{id: "healthy"}
	require.NoError(t, registry.Register(failing))
	require.NoError(t, registry.Register(healthy))

	dispatcher := NewDispatcher(registry, nil)
	err := dispatcher.Dispatch(context.Background(), thresholdIntent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifier failing")
	assert.Len(t, failing.received(), 1)
	assert.Len(t, healthy.received(), 1)
}

func TestDispatcher_RespectsNotificationPreference(t *testing.T) {
	registry := NewRegistry()
	recorder := &recordingNotifier{id: "recorder"}
	require.NoError(t, registry.Register(recorder))

	prefs := settings.Default()
	prefs.NotificationsEnabled = false
	dispatcher := NewDispatcher(registry, settings.NewProvider(prefs))

	ctx := context.Background()
	require.NoError(t, dispatcher.Dispatch(ctx, thresholdIntent()))
	require.NoError(t, dispatcher.Dispatch(ctx, timer.Intent{Type: timer.IntentBreakEnded, UserID: "user-1"}))
	require.NoError(t, dispatcher.Dispatch(ctx, timer.Intent{Type: timer.IntentBreakStarted, UserID: "user-1"}))

	received := recorder.received()
	require.Len(t, received, 1)
	assert.Equal(t, timer.IntentBreakStarted, received[0].Type)
}

func TestDispatcher_RunUntilChannelClosed(t *testing.T) {
	registry := NewRegistry()
	recorder := &recordingNotifier{id: "recorder"}
	require.NoError(t, registry.Register(recorder))

	intents := make(chan timer.Intent, 3)
	intents <- thresholdIntent()
	intents <- timer.Intent{Type: timer.IntentBreakStarted, UserID: "user-1"}
	close(intents)

	err := NewDispatcher(registry, nil).Run(context.Background(), intents)
	require.NoError(t, err)
	assert.Len(t, recorder.received(), 2)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDispatcher(NewRegistry(), nil).Run(ctx, make(chan timer.Intent))
	assert.NoError(t, err)
}

func TestPayload_RoundTrip(t *testing.T) {
	intent := timer.Intent{
		Type:          timer.IntentBreakEnded,
		UserID:        "user-1",
		BreakType:     timer.BreakShort,
		BreakDuration: 5 * time.Minute,
		BreakID:       "break-1",
		Outcome:       timer.OutcomeCancelled,
		At:            time.UnixMilli(1_760_000_000_000),
	}

	data, err := json.Marshal(NewPayload(intent))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"durationMs":300000`)

	var payload Payload
	require.NoError(t, json.Unmarshal(data, &payload))
	restored := payload.Intent()
	assert.Equal(t, intent.Type, restored.Type)
	assert.Equal(t, intent.BreakDuration, restored.BreakDuration)
	assert.Equal(t, intent.Outcome, restored.Outcome)
	assert.True(t, intent.At.Equal(restored.At))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	notifier := NewLogNotifier(logger)
	require.NoError(t, notifier.Notify(context.Background(), thresholdIntent()))

	out := buf.String()
	assert.True(t, strings.Contains(out, "time for a break"), out)
	assert.True(t, strings.Contains(out, `"user_id":"user-1"`), out)
}

func TestRedisPublisher(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "break-timer-intents")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewRedisPublisher(client, "break-timer-intents", 2)
	require.NoError(t, publisher.Notify(ctx, thresholdIntent()))

	receiveCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(receiveCtx)
	require.NoError(t, err)

	var payload Payload
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
	assert.Equal(t, string(timer.IntentBreakThresholdReached), payload.Type)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, (31 * time.Minute).Milliseconds(), payload.WorkTimeMs)
}

func TestRedisPublisher_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = NewRedisPublisher(client, "break-timer-intents", 1).Notify(ctx, thresholdIntent())
	assert.Error(t, err)
}
