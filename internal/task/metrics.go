package task

import "github.com/prometheus/client_golang/prometheus"

var unknownTasksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vaultchain_unknown_tasks_total",
		Help: "Total number of dispatches naming a task with no registered handler.",
	},
)

func init() {
	prometheus.MustRegister(unknownTasksTotal)
}
