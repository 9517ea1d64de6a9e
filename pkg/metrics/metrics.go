// Package metrics provides Prometheus-based observability for task runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"browserpilot/pkg/logx"
)

// Recorder records orchestration metrics using Prometheus collectors.
type Recorder struct {
	nodeTransitions *prometheus.CounterVec
	actionsTotal    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	strategyChanges prometheus.Counter
	checkpoints     prometheus.Counter
	compactions     prometheus.Counter
	progressScore   *prometheus.GaugeVec
	nodeDuration    *prometheus.HistogramVec
}

// NewRecorder creates a recorder registered against the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		nodeTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_node_transitions_total",
				Help: "Total node transitions by source and destination node",
			},
			[]string{"from", "to"},
		),
		actionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_actions_total",
				Help: "Total browser actions executed by name and status",
			},
			[]string{"action", "status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_action_errors_total",
				Help: "Total classified action errors by category",
			},
			[]string{"error_type"},
		),
		strategyChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agent_strategy_changes_total",
			Help: "Total strategy re-planning events",
		}),
		checkpoints: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agent_human_checkpoints_total",
			Help: "Total human confirmation checkpoints raised",
		}),
		compactions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agent_context_compactions_total",
			Help: "Total context compaction events",
		}),
		progressScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_progress_score",
				Help: "Latest progress score per session, in [0, 1]",
			},
			[]string{"session_id"},
		),
		nodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_node_duration_seconds",
				Help:    "Time spent per node execution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
	}
}

// ObserveTransition records a node transition.
func (r *Recorder) ObserveTransition(from, to string) {
	r.nodeTransitions.WithLabelValues(from, to).Inc()
}

// ObserveAction records one executed browser action.
func (r *Recorder) ObserveAction(action string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.actionsTotal.WithLabelValues(action, status).Inc()
}

// ObserveError records a classified action error.
func (r *Recorder) ObserveError(errorType string) {
	r.errorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveStrategyChange records a re-planning event.
func (r *Recorder) ObserveStrategyChange() { r.strategyChanges.Inc() }

// ObserveCheckpoint records a raised human checkpoint.
func (r *Recorder) ObserveCheckpoint() { r.checkpoints.Inc() }

// ObserveCompaction records a context compaction.
func (r *Recorder) ObserveCompaction() { r.compactions.Inc() }

// ObserveProgress records the latest progress score for a session.
func (r *Recorder) ObserveProgress(sessionID string, score float64) {
	r.progressScore.WithLabelValues(sessionID).Set(score)
}

// ObserveNodeDuration records how long one node execution took.
func (r *Recorder) ObserveNodeDuration(node string, d time.Duration) {
	r.nodeDuration.WithLabelValues(node).Observe(d.Seconds())
}

// Serve exposes /metrics and a liveness probe on addr. Blocks until the
// server fails.
func Serve(addr string) error {
	logger := logx.NewLogger("metrics")
	logger.Info("metrics endpoint listening on %s", addr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}
