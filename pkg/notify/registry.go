// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

// Notifier delivers timer intents to a user-facing channel.
type Notifier interface {
	// ID returns the unique notifier identifier.
	ID() string

	// Notify delivers one intent. It should return promptly when ctx is done.
	Notify(ctx context.Context, intent timer.Intent) error
}

// Registry manages available notifiers.
type Registry struct {
	notifiers map[string]Notifier
	mu        sync.RWMutex
}

// NewRegistry creates a new empty notifier registry.
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier. It fails if the ID is already taken.
func (r *Registry) Register(notifier Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notifiers[notifier.ID()]; exists {
		return fmt.Errorf("notifier %s already registered", notifier.ID())
	}

	r.notifiers[notifier.ID()] = notifier
	return nil
}

// Unregister removes a notifier.
func (r *Registry) Unregister(notifierID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notifiers[notifierID]; !exists {
		return fmt.Errorf("notifier %s not found", notifierID)
	}

	delete(r.notifiers, notifierID)
	return nil
}

// Get returns a notifier by ID, or nil.
func (r *Registry) Get(notifierID string) Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.notifiers[notifierID]
}

// GetAll returns all notifiers ordered by ID.
func (r *Registry) GetAll() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notifiers := make([]Notifier, 0, len(r.notifiers))
	for _, notifier := range r.notifiers {
		notifiers = append(notifiers, notifier)
	}
	sort.Slice(notifiers, func(i, j int) bool {
		return notifiers[i].ID() < notifiers[j].ID()
	})
	return notifiers
}

// Count returns the number of registered notifiers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.notifiers)
}
