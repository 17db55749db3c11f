package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registration intake.
// Tracks submissions, failures by code and the uniqueness check latency.
type Metrics struct {
	SubmittedTotal          prometheus.Counter
	SubmissionFailures      *prometheus.CounterVec
	SubmitDuration          prometheus.Histogram
	UniquenessCheckDuration prometheus.Histogram
	DraftsCreated           prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "numerano_registrations_submitted_total",
			Help: "Total number of registrations stored",
		}),
		SubmissionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "numerano_registration_submission_failures_total",
			Help: "Refused or failed submissions by error code",
		}, []string{"code"}),
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "numerano_registration_submit_duration_seconds",
			Help:    "Duration of Submit operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		UniquenessCheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "numerano_email_uniqueness_check_duration_seconds",
			Help:    "Duration of cross-registration email uniqueness checks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		DraftsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "numerano_registration_drafts_created_total",
			Help: "Total number of wizard drafts started",
		}),
	}
}

// ObserveSubmit records the duration of a Submit call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

// ObserveUniquenessCheck records the duration of a uniqueness check.
func (m *Metrics) ObserveUniquenessCheck(start time.Time) {
	m.UniquenessCheckDuration.Observe(time.Since(start).Seconds())
}

// IncrementSubmissionFailure counts a submission refused with code.
func (m *Metrics) IncrementSubmissionFailure(code string) {
	m.SubmissionFailures.WithLabelValues(code).Inc()
}
