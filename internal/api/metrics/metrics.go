// Package metrics defines the custom Prometheus metrics for the LifeLink
// coordination API. All collectors register with the default registry through
// promauto when the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lifelink"

// ── Workflow metrics ──────────────────────────────────────────────────────────

// WorkflowOpsTotal counts coordinator operations.
// Labels:
//   - op: coordinator method name (e.g. "ExpressInterest")
//   - result: "ok" or the error kind (e.g. "duplicate_interest", "store_unavailable")
var WorkflowOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_operations_total",
		Help:      "Total number of coordinator operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// WorkflowOpDuration measures coordinator operation latency, store calls included.
var WorkflowOpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workflow_operation_duration_seconds",
		Help:      "Duration of coordinator operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Blood request metrics ─────────────────────────────────────────────────────

// RequestsCreatedTotal counts newly opened blood requests.
var RequestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blood_requests_created_total",
		Help:      "Total number of blood requests created, by blood group and urgency.",
	},
	[]string{"blood_group", "urgency"},
)

// RequestTransitionsTotal counts committed request status changes.
// Label:
//   - status: the new status ("fulfilled" or "cancelled")
var RequestTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blood_request_transitions_total",
		Help:      "Total number of blood request status transitions, by target status.",
	},
	[]string{"status"},
)

// ── Donation interest metrics ─────────────────────────────────────────────────

var InterestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "donation_interests_created_total",
		Help:      "Total number of donation interests recorded, by requested blood group.",
	},
	[]string{"blood_group"},
)

var InterestTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "donation_interest_transitions_total",
		Help:      "Total number of donation interest status transitions, by target status.",
	},
	[]string{"status"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsPublishedTotal counts notifications handed to the notifier.
// Label:
//   - type: workflow event type (e.g. "interest.expressed")
var NotificationsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of workflow notifications delivered, by event type.",
	},
	[]string{"type"},
)

// NotificationsFailedTotal counts notifications that were dropped or could not be delivered.
// Label:
//   - reason: "queue_full" or "notify_error"
var NotificationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Total number of workflow notifications that were dropped or failed.",
	},
	[]string{"reason"},
)

// NotificationQueueDepth tracks pending notifications per dispatcher worker.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
