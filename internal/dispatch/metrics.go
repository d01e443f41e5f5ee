package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/vaultchain/internal/task"
)

// Metric label values for dispatch outcome.
const (
	outcomeOK    = "ok"
	outcomeError = "error"

	unknownTaskLabel = "unknown"
)

var (
	dispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultchain_dispatches_total",
			Help: "Total number of task dispatches by task, execution path and outcome.",
		},
		[]string{"task", "path", "outcome"},
	)

	remoteCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vaultchain_executor_call_seconds",
			Help:    "Duration of remote executor calls, including failed ones, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(dispatchesTotal)
	prometheus.MustRegister(remoteCallDuration)
}

// observeDispatch records one dispatch. Task names outside the known set
// share a single label to keep cardinality bounded.
func observeDispatch(name, path string, ok bool) {
	if !task.Known(name) {
		name = unknownTaskLabel
	}
	outcome := outcomeOK
	if !ok {
		outcome = outcomeError
	}
	dispatchesTotal.WithLabelValues(name, path, outcome).Inc()
}
