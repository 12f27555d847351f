package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	gradingsTotal          *prometheus.CounterVec
	gradingRejectionsTotal *prometheus.CounterVec
	gradingExecFailures    prometheus.Counter
	uploadRejectedTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lumen_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_gradings_total",
			Help: "Total number of graded submissions by task kind and verdict.",
		}, []string{"task_kind", "verdict"})

		gradingRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_grading_rejections_total",
			Help: "Grading calls rejected by the attempt-limit policy.",
		}, []string{"task_kind"})

		gradingExecFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_grading_execution_failures_total",
			Help: "Code gradings aborted by a sandbox timeout or crash.",
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_upload_rejected_total",
			Help: "Attachment uploads rejected during validation.",
		}, []string{"reason"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, gradingsTotal, gradingRejectionsTotal, gradingExecFailures, uploadRejectedTotal)
	})
}

// HTTPRequests exposes the counter for HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Gradings exposes the counter for graded submissions.
func Gradings() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}

// GradingRejections exposes the counter for limit-rejected grading calls.
func GradingRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRejectionsTotal
}

// GradingExecutionFailures exposes the counter for sandbox failures.
func GradingExecutionFailures() prometheus.Counter {
	RegisterMetrics()
	return gradingExecFailures
}

// UploadRejected exposes the counter for rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}
