// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "break_timer"

var (
	StateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of timer state transitions",
		},
		[]string{"from", "to"},
	)

	ThresholdNotificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_notifications_total",
			Help:      "Total number of break threshold intents emitted",
		},
	)

	BreaksStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaks_started_total",
			Help:      "Total number of breaks started",
		},
		[]string{"break_type"},
	)

	BreaksEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaks_ended_total",
			Help:      "Total number of breaks ended",
		},
		[]string{"break_type", "outcome"},
	)

	CheckpointFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_failures_total",
			Help:      "Total number of failed state checkpoints",
		},
	)

	RecoveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoveries_total",
			Help:      "Total number of engine recoveries by result",
		},
		[]string{"result"},
	)

	ActiveEngines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_engines",
			Help:      "Number of timer engines currently loaded",
		},
	)

	NotificationsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Total number of intents delivered to notifiers",
		},
		[]string{"notifier", "intent", "status"},
	)
)

// Collectors returns every custom collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		StateTransitionsTotal,
		ThresholdNotificationsTotal,
		BreaksStartedTotal,
		BreaksEndedTotal,
		CheckpointFailuresTotal,
		RecoveriesTotal,
		ActiveEngines,
		NotificationsDispatchedTotal,
	}
}
