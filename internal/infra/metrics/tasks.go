package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(tasksStartedTotal, tasksFinishedTotal, tasksCancelledTotal) }

var tasksStartedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "analysis_tasks_started_total",
		Help: "Total number of analysis tasks started.",
	},
)

var tasksFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analysis_tasks_finished_total",
		Help: "Total number of analysis tasks reaching a terminal phase, labeled by outcome.",
	},
	[]string{"outcome"}, // 'completed', 'failed'
)

var tasksCancelledTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "analysis_tasks_cancelled_total",
		Help: "Total number of analysis tasks cancelled locally before a terminal event.",
	},
)

func IncTaskStarted()   { tasksStartedTotal.Inc() }
func IncTaskCancelled() { tasksCancelledTotal.Inc() }

func IncTaskFinished(outcome string) {
	tasksFinishedTotal.WithLabelValues(norm(outcome)).Inc()
}
