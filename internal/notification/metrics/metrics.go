package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for notification delivery.
type Metrics struct {
	NotificationsTotal *prometheus.CounterVec
	SendDuration       prometheus.Histogram
	QueueDepth         prometheus.Gauge
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "numerano_notifications_total",
			Help: "Status notifications by delivery outcome",
		}, []string{"outcome"}),
		SendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "numerano_notification_send_duration_seconds",
			Help:    "Duration of provider send calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "numerano_notification_queue_depth",
			Help: "Notifications waiting for a worker",
		}),
	}
}

// ObserveSend records one provider call and its outcome.
func (m *Metrics) ObserveSend(outcome string, start time.Time) {
	m.SendDuration.Observe(time.Since(start).Seconds())
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}
