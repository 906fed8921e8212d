// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-break-timer/pkg/metrics"
	"github.com/AccelByte/extend-break-timer/pkg/settings"
	"github.com/AccelByte/extend-break-timer/pkg/timer"
)

const defaultNotifyTimeout = 5 * time.Second

// SettingsReader exposes the notification preference.
type SettingsReader interface {
	Current() settings.Settings
}

// Dispatcher fans intents out to every registered notifier.
type Dispatcher struct {
	registry *Registry
	settings SettingsReader
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher over registry. prefs may be nil, in which
// case every intent is delivered.
func NewDispatcher(registry *Registry, prefs SettingsReader) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		settings: prefs,
		timeout:  defaultNotifyTimeout,
	}
}

// Registry returns the notifiers the dispatcher delivers to.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Run dispatches intents until ctx is done or the channel is closed.
func (d *Dispatcher) Run(ctx context.Context, intents <-chan timer.Intent) error {
	logrus.Infof("notification dispatcher started with %d notifiers", d.registry.Count())
	for {
		select {
		case <-ctx.Done():
			logrus.Info("notification dispatcher stopped")
			return nil
		case intent, ok := <-intents:
			if !ok {
				logrus.Info("intent stream closed, notification dispatcher stopped")
				return nil
			}
			if err := d.Dispatch(ctx, intent); err != nil {
				logrus.Errorf("failed to dispatch %s intent for user %s: %v", intent.Type, intent.UserID, err)
			}
		}
	}
}

// Dispatch delivers one intent to every notifier. Failures of one notifier do
// not stop delivery to the others.
func (d *Dispatcher) Dispatch(ctx context.Context, intent timer.Intent) error {
	if d.muted(intent) {
		logrus.Debugf("notifications disabled, skipping %s intent for user %s", intent.Type, intent.UserID)
		return nil
	}

	var errs []error
	for _, notifier := range d.registry.GetAll() {
		notifyCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := notifier.Notify(notifyCtx, intent)
		cancel()

		if err != nil {
			metrics.NotificationsDispatchedTotal.WithLabelValues(notifier.ID(), string(intent.Type), "error").Inc()
			errs = append(errs, fmt.Errorf("notifier %s: %w", notifier.ID(), err))
			continue
		}
		metrics.NotificationsDispatchedTotal.WithLabelValues(notifier.ID(), string(intent.Type), "ok").Inc()
	}
	return errors.Join(errs...)
}

// muted reports whether the user's preferences suppress intent. Break starts
// are always delivered since they confirm a user action.
func (d *Dispatcher) muted(intent timer.Intent) bool {
	if d.settings == nil || d.settings.Current().NotificationsEnabled {
		return false
	}
	return intent.Type != timer.IntentBreakStarted
}
