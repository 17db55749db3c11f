package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RejectedTotal    *prometheus.CounterVec
	StoreErrorsTotal prometheus.Counter
	FallbackChecks   prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "numerano_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"scope"}),
		StoreErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "numerano_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed against the primary store",
		}),
		FallbackChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "numerano_ratelimit_fallback_checks_total",
			Help: "Rate limit checks served by the in-memory fallback",
		}),
	}
}
