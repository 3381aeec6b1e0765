// Package metrics defines and registers the Prometheus collectors for the
// session subsystem and the reference profile service. It is the single
// source of truth for metric names, labels, and help strings.
//
// Collectors register with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessiongate"

// ── Session lifecycle ────────────────────────────────────────────────────────

// SessionPurgesTotal counts wipes of every stored credential.
// Label:
//   - reason: "fresh_session", "inactive_on_start", "sweep", "visibility"
var SessionPurgesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_purges_total",
		Help:      "Total number of full credential purges, by reason.",
	},
	[]string{"reason"},
)

// ActivityEventsDroppedTotal counts UI events discarded because the event bus was full.
var ActivityEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_events_dropped_total",
		Help:      "Total number of UI events dropped by the event bus.",
	},
)

// ── Role sessions ────────────────────────────────────────────────────────────

// RevalidationsTotal counts background profile revalidations.
// Labels:
//   - role: "admin", "seller", "buyer"
//   - outcome: "ok", "unauthorized", "transient", "stale"
var RevalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revalidations_total",
		Help:      "Total number of profile revalidations, by role and outcome.",
	},
	[]string{"role", "outcome"},
)

// RevalidationDuration measures profile endpoint round-trips.
var RevalidationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "revalidation_duration_seconds",
		Help:      "Duration of profile revalidation calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"role"},
)

// LoginsTotal counts client-side logins.
// Labels:
//   - role
//   - result: "ok", "failed"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of logins, by role and result.",
	},
	[]string{"role", "result"},
)

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - role
//   - outcome: "wait", "admit", "redirect", "redirect_foreign"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by role and outcome.",
	},
	[]string{"role", "outcome"},
)

// ── Seller verification ──────────────────────────────────────────────────────

// AccessDecisionsTotal counts dashboard access decisions.
// Label:
//   - reason: "none", "verification_pending", "verification_rejected", "verification_required", "trial_expired"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of seller dashboard access decisions, by reason.",
	},
	[]string{"reason"},
)

// VerificationTransitionsTotal counts verification state changes applied by the profile service.
var VerificationTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_transitions_total",
		Help:      "Total number of seller verification transitions, by from/to state.",
	},
	[]string{"from", "to"},
)
