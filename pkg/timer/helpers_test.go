// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
)

var testEpoch = time.UnixMilli(1_760_000_000_000)

// fakeClock is a manual clock. Advance moves time forward and runs due
// callbacks synchronously in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	fired   bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			count++
		}
	}
	return count
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errStoreDown
}

func (failingStore) Set(ctx context.Context, key string, value []byte) error {
	return errStoreDown
}

func (failingStore) Remove(ctx context.Context, key string) error {
	return errStoreDown
}

// flakyStore fails the first failures reads and then delegates to Store.
type flakyStore struct {
	storage.Store

	mu       sync.Mutex
	failures int
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return nil, errStoreDown
	}
	s.mu.Unlock()
	return s.Store.Get(ctx, key)
}

// gatedStore holds reads of keys under prefix until release is closed.
type gatedStore struct {
	storage.Store

	prefix  string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore(store storage.Store, prefix string) *gatedStore {
	return &gatedStore{
		Store:   store,
		prefix:  prefix,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if strings.HasPrefix(key, s.prefix) {
		s.once.Do(func() { close(s.entered) })
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Store.Get(ctx, key)
}

type testEnv struct {
	clock    *fakeClock
	store    *storage.MemoryStore
	settings *settings.Provider
}

func newTestEnv() *testEnv {
	return &testEnv{
		clock:    newFakeClock(),
		store:    storage.NewMemoryStore(),
		settings: settings.NewProvider(settings.Default()),
	}
}

func (env *testEnv) deps() Dependencies {
	return Dependencies{
		Store:    env.store,
		Settings: env.settings,
		Clock:    env.clock,
	}
}

// startEngine creates and recovers an engine, subscribing before recovery so
// that intents emitted while recovering are captured.
func (env *testEnv) startEngine(t *testing.T, userID string) (*Engine, <-chan Intent) {
	t.Helper()
	engine, err := New(userID, env.deps(), Options{})
	require.NoError(t, err)
	intents := engine.Subscribe(4096)
	engine.Start(context.Background())
	t.Cleanup(engine.Stop)
	return engine, intents
}

func (env *testEnv) seed(t *testing.T, userID string, record Record) {
	t.Helper()
	keys := recordKeys{
		timerState:  DefaultOptions().TimerStateKey(userID),
		workSession: DefaultOptions().WorkSessionKey(userID),
	}
	require.NoError(t, saveRecord(context.Background(), env.store, keys, record))
}

func (env *testEnv) load(t *testing.T, userID string) Record {
	t.Helper()
	keys := recordKeys{
		timerState:  DefaultOptions().TimerStateKey(userID),
		workSession: DefaultOptions().WorkSessionKey(userID),
	}
	record, err := loadRecord(context.Background(), env.store, keys)
	require.NoError(t, err)
	return record
}

func drain(ch <-chan Intent) []Intent {
	var intents []Intent
	for {
		select {
		case intent, ok := <-ch:
			if !ok {
				return intents
			}
			intents = append(intents, intent)
		default:
			return intents
		}
	}
}

func ofType(intents []Intent, intentType IntentType) []Intent {
	var matched []Intent
	for _, intent := range intents {
		if intent.Type == intentType {
			matched = append(matched, intent)
		}
	}
	return matched
}

func int64Ptr(v int64) *int64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
