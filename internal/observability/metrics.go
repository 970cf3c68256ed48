package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CounterMutations counts denormalized counter adjustments by entity and direction.
	CounterMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epsylon_counter_mutations_total",
		Help: "Total denormalized counter adjustments by entity and direction",
	}, []string{"entity", "direction"})

	// ModerationVerdicts counts classifier verdicts.
	ModerationVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epsylon_moderation_verdicts_total",
		Help: "Total moderation classifier verdicts",
	}, []string{"verdict"})

	// NotificationEmitErrors counts best-effort notification failures.
	NotificationEmitErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epsylon_notification_emit_errors_total",
		Help: "Total notification emissions that failed and were dropped",
	})
)

// InitMetrics creates the Fiber Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
