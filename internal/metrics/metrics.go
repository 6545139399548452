// Package metrics exposes the engine's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes every metric emitted by the daemon.
const namespace = "wake_scheduler"

// Metrics bundles the counters the scheduling engine maintains.
type Metrics struct {
	// EventsScheduled counts events handed to the notification facility.
	EventsScheduled prometheus.Counter
	// EventsCancelled counts events cancelled on the facility.
	EventsCancelled prometheus.Counter
	// EventsFired counts fire callbacks, partitioned by event role.
	EventsFired *prometheus.CounterVec
	// SnoozesAccepted counts snoozes that postponed an occurrence.
	SnoozesAccepted prometheus.Counter
	// SnoozesRejected counts snoozes refused by the state machine.
	SnoozesRejected prometheus.Counter
	// ReconcileRuns counts reconciliation passes.
	ReconcileRuns prometheus.Counter
	// FacilityFailures counts failed facility calls, partitioned by operation.
	FacilityFailures *prometheus.CounterVec
}

// New registers the engine counters on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_scheduled_total",
			Help:      "Scheduled events handed to the notification facility.",
		}),
		EventsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_cancelled_total",
			Help:      "Scheduled events cancelled on the notification facility.",
		}),
		EventsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_fired_total",
			Help:      "Fire callbacks processed, by event role.",
		}, []string{"role"}),
		SnoozesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snoozes_accepted_total",
			Help:      "Snooze requests that postponed an occurrence.",
		}),
		SnoozesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snoozes_rejected_total",
			Help:      "Snooze requests refused by the state machine.",
		}),
		ReconcileRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation passes against the notification facility.",
		}),
		FacilityFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facility_failures_total",
			Help:      "Failed notification facility calls, by operation.",
		}, []string{"operation"}),
	}
}
