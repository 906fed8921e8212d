// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/AccelByte/extend-break-timer/pkg/metrics"
	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/storage"
)

const engineIntentBuffer = 64

// Manager owns one Engine per user, recovering each lazily on first use and
// fanning their intents into a single stream.
type Manager struct {
	deps Dependencies
	opts Options

	loads singleflight.Group

	mu          sync.Mutex
	engines     map[string]*Engine
	subscribers []chan Intent
	stopped     bool
	forwarders  sync.WaitGroup
}

// NewManager creates a manager whose engines share deps and opts.
func NewManager(deps Dependencies, opts Options) *Manager {
	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	if deps.Settings == nil {
		deps.Settings = settings.NewProvider(settings.Default())
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	return &Manager{
		deps:    deps,
		opts:    opts.withDefaults(),
		engines: make(map[string]*Engine),
	}
}

// Options returns the effective engine options.
func (m *Manager) Options() Options {
	return m.opts
}

// Engine returns the engine for userID, creating and recovering it if needed.
// Recovery runs outside the manager lock; concurrent first calls for the same
// user share one load.
func (m *Manager) Engine(ctx context.Context, userID string) (*Engine, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if engine, ok, err := m.cached(userID); ok || err != nil {
		return engine, err
	}

	loaded, err, _ := m.loads.Do(userID, func() (interface{}, error) {
		return m.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return loaded.(*Engine), nil
}

func (m *Manager) cached(userID string) (*Engine, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil, false, ErrEngineStopped
	}
	engine, ok := m.engines[userID]
	return engine, ok, nil
}

func (m *Manager) load(ctx context.Context, userID string) (*Engine, error) {
	if engine, ok, err := m.cached(userID); ok || err != nil {
		return engine, err
	}

	engine, err := New(userID, m.deps, m.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine for user %s: %w", userID, err)
	}
	intents := engine.Subscribe(engineIntentBuffer)
	engine.Start(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		engine.Stop()
		return nil, ErrEngineStopped
	}
	m.forwarders.Add(1)
	go m.forward(intents)
	m.engines[userID] = engine
	metrics.ActiveEngines.Set(float64(len(m.engines)))
	logrus.Infof("loaded timer engine for user %s", userID)
	return engine, nil
}

// Subscribe registers a channel receiving intents from every engine.
func (m *Manager) Subscribe(buffer int) <-chan Intent {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Intent, buffer)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		close(ch)
		return ch
	}
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Count returns the number of loaded engines.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

// CheckLiveness runs the liveness check on every loaded engine.
func (m *Manager) CheckLiveness() {
	for _, engine := range m.snapshot() {
		engine.CheckLiveness()
	}
}

// Run performs liveness checks at the configured interval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.LivenessInterval)
	defer ticker.Stop()

	logrus.Infof("liveness loop started with interval %v", m.opts.LivenessInterval)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("liveness loop stopped")
			return nil
		case <-ticker.C:
			m.CheckLiveness()
		}
	}
}

// Reset stops the user's engine and removes its persisted state.
// The next call to Engine starts the user from defaults.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	m.mu.Lock()
	engine, ok := m.engines[userID]
	delete(m.engines, userID)
	metrics.ActiveEngines.Set(float64(len(m.engines)))
	m.mu.Unlock()

	if ok {
		engine.Stop()
	}

	keys := recordKeys{
		timerState:  m.opts.TimerStateKey(userID),
		workSession: m.opts.WorkSessionKey(userID),
	}
	if err := removeRecord(ctx, m.deps.Store, keys); err != nil {
		return fmt.Errorf("failed to remove timer data for user %s: %w", userID, err)
	}
	logrus.Infof("reset all timer data for user %s", userID)
	return nil
}

// Stop stops every engine and closes subscriber channels once all pending
// intents have been forwarded.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	engines := make([]*Engine, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	m.engines = make(map[string]*Engine)
	m.mu.Unlock()

	for _, engine := range engines {
		engine.Stop()
	}
	m.forwarders.Wait()
	metrics.ActiveEngines.Set(0)

	m.mu.Lock()
	subscribers := m.subscribers
	m.subscribers = nil
	m.mu.Unlock()
	for _, ch := range subscribers {
		close(ch)
	}
}

func (m *Manager) snapshot() []*Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, engine := range m.engines {
		engines = append(engines, engine)
	}
	return engines
}

func (m *Manager) forward(intents <-chan Intent) {
	defer m.forwarders.Done()
	for intent := range intents {
		m.mu.Lock()
		for _, ch := range m.subscribers {
			select {
			case ch <- intent:
			default:
				logrus.Warnf("dropped %s intent for user %s: subscriber is full", intent.Type, intent.UserID)
			}
		}
		m.mu.Unlock()
	}
}
