package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dlqRequeuesTotal) }

var dlqRequeuesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stt_dlq_requeues_total",
		Help: "DLQ replay attempts, labeled by result.",
	},
	[]string{"status"}, // 'requeued', 'not_found'
)

func IncDLQRequeue(status string) {
	dlqRequeuesTotal.WithLabelValues(norm(status)).Inc()
}
