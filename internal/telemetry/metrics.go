// Package telemetry holds the Prometheus collectors shared by the grid
// packages. Collectors register with the default registry on import and are
// served by the application's /metrics endpoint.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sparsegrid"

// Outcome labels for Evaluations.
const (
	OutcomeValue    = "value"
	OutcomeError    = "error"
	OutcomeCircular = "circular"
	OutcomeFrozen   = "frozen"
	OutcomeSafe     = "safe"
)

var (
	// Evaluations counts cell evaluations by outcome.
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "Cell evaluations by outcome",
	}, []string{"outcome"})

	// EvaluationDuration measures top-level reads, references included.
	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "read_duration_seconds",
		Help:      "Duration of top-level cell and range reads in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	// CacheHits counts reads answered from the result cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "cache_hits_total",
		Help:      "Reads answered from the result cache",
	})

	// CacheInvalidations counts whole-cache invalidations.
	CacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "cache_invalidations_total",
		Help:      "Whole result cache invalidations",
	})

	// InfiniteRecursions counts range reads rejected as self-recursive.
	InfiniteRecursions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "infinite_recursions_total",
		Help:      "Range reads rejected as infinitely recursive",
	})

	// HistoryReplays counts undo and redo steps.
	// Labels: direction (undo, redo)
	HistoryReplays = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "replays_total",
		Help:      "Undo and redo steps replayed",
	}, []string{"direction"})

	// GatewayRequests counts socket.io gateway requests.
	// Labels: event, status (ok, error)
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Socket.io gateway requests by event and status",
	}, []string{"event", "status"})

	// GatewayClients tracks connected socket.io clients.
	GatewayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "clients",
		Help:      "Connected socket.io clients",
	})
)
