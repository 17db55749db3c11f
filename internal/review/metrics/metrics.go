package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review workflow.
type Metrics struct {
	ReviewsTotal    *prometheus.CounterVec
	ReviewDuration  prometheus.Histogram
	DispatchRefused prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReviewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "numerano_reviews_total",
			Help: "Completed reviews by decision",
		}, []string{"decision"}),
		ReviewDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "numerano_review_duration_seconds",
			Help:    "Duration of Review operations up to the notification hand-off",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		DispatchRefused: factory.NewCounter(prometheus.CounterOpts{
			Name: "numerano_notification_dispatch_refused_total",
			Help: "Notifications that could not be queued",
		}),
	}
}

// ObserveReview records the duration of a Review call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveReview(start time.Time) {
	m.ReviewDuration.Observe(time.Since(start).Seconds())
}
