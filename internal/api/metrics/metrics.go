// Package metrics defines and registers all custom Prometheus metrics of the
// KSCST training portal. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on import via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Backend gateway ──────────────────────────────────────────────────────────

// GatewayRequestsTotal counts backend calls.
// Labels:
//   - op: gateway operation (e.g. "list_trainees", "upload_material")
//   - outcome: "success", "client_error", "server_error", "transport_error",
//     "invalid_response" or "expected" (404 on certificate fetch)
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of backend API calls, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// GatewayRequestDuration measures a backend round trip, including failures.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of backend API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Sessions & access control ────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard decisions.
// Label:
//   - outcome: "render", "login" or "dashboard"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - result: "success" or "failure"
//   - role: normalized role on success, empty on failure
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result and role.",
	},
	[]string{"result", "role"},
)

// SessionRestoresTotal counts per-request session restores.
// Label:
//   - result: "restored" or "empty"
var SessionRestoresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_restores_total",
		Help:      "Total number of session restores, by result.",
	},
	[]string{"result"},
)

// ── Views ────────────────────────────────────────────────────────────────────

// FlashMessagesTotal counts banner messages recorded for the next view.
// Label:
//   - kind: "success" or "error"
var FlashMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flash_messages_total",
		Help:      "Total number of flash messages, by kind.",
	},
	[]string{"kind"},
)

// DashboardSectionErrorsTotal counts dashboard sections that failed to load.
// Labels:
//   - dashboard: "admin", "trainer" or "trainee"
//   - section: section name (e.g. "materials")
var DashboardSectionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dashboard_section_errors_total",
		Help:      "Total number of dashboard sections that failed to load.",
	},
	[]string{"dashboard", "section"},
)
