package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tasksSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converter_tasks_submitted_total",
			Help: "Submissions seen by the admission gate",
		},
		[]string{"outcome"}, // admitted, rejected
	)

	taskTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converter_task_transitions_total",
			Help: "Task status transitions",
		},
		[]string{"status"},
	)

	conversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "converter_conversion_duration_seconds",
			Help:    "Time from claim to completed result",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"source", "target"},
	)

	tasksInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "converter_tasks_in_flight",
			Help: "Tasks currently claimed by an executor",
		},
	)

	artifactsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "converter_artifacts_swept_total",
			Help: "Result artifacts reclaimed by the cleanup sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksSubmitted)
	prometheus.MustRegister(taskTransitions)
	prometheus.MustRegister(conversionDuration)
	prometheus.MustRegister(tasksInFlight)
	prometheus.MustRegister(artifactsSwept)
}

func RecordSubmission(admitted bool) {
	outcome := "admitted"
	if !admitted {
		outcome = "rejected"
	}
	tasksSubmitted.WithLabelValues(outcome).Inc()
}

func RecordTransition(status string) {
	taskTransitions.WithLabelValues(status).Inc()
}

func ObserveConversion(source, target string, d time.Duration) {
	conversionDuration.WithLabelValues(source, target).Observe(d.Seconds())
}

func TaskStarted() {
	tasksInFlight.Inc()
}

func TaskFinished() {
	tasksInFlight.Dec()
}

func ArtifactSwept() {
	artifactsSwept.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
