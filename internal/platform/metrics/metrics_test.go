package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveRequest("/registrations/drafts", "POST", "2xx", time.Now())
	m.ObserveRequest("/registrations/drafts", "POST", "2xx", time.Now())
	m.ObserveRequest("/registrations/drafts", "POST", "4xx", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/registrations/drafts", "POST", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/registrations/drafts", "POST", "4xx")))
}
