package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(sttJobsTotal, sttJobDurationSeconds) }

var sttJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stt_jobs_total",
		Help: "Total number of STT jobs processed, labeled by outcome.",
	},
	[]string{"status"}, // 'success', 'retry', 'dlq', 'missing_record'
)

var sttJobDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "stt_job_duration_seconds",
		Help:    "End-to-end processing time per STT job, including retries.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
)

func IncJob(status string) {
	sttJobsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveJobDuration(d time.Duration) {
	sttJobDurationSeconds.Observe(d.Seconds())
}
