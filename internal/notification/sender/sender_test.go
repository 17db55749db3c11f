package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numerano/internal/notification/models"
	"numerano/internal/notification/render"
	"numerano/pkg/platform/circuit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNotification() models.StatusNotification {
	return models.StatusNotification{
		RecipientEmail: "bob@example.com",
		RecipientName:  "Bob",
		TeamName:       "Frost Giants",
		TeamID:         "ICE-ABC123-XY12",
		Status:         models.StatusApproved,
	}
}

func TestEmailJSSend(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	s := NewEmailJS(EmailJSConfig{
		Endpoint:   srv.URL,
		ServiceID:  "svc",
		TemplateID: "tpl",
		PublicKey:  "pub",
	}, render.New("Numerano Code Challenge"))

	require.NoError(t, s.Send(context.Background(), testNotification()))
	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "tpl", got.TemplateID)
	assert.Equal(t, "pub", got.UserID)
	assert.Equal(t, "bob@example.com", got.TemplateParams["to_email"])
	assert.Equal(t, "Team Approved - Frost Giants", got.TemplateParams["subject"])
}

func TestEmailJSSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The user ID is invalid"))
	}))
	defer srv.Close()

	s := NewEmailJS(EmailJSConfig{Endpoint: srv.URL}, render.New("Numerano Code Challenge"))
	err := s.Send(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "The user ID is invalid")
}

type stubSender struct {
	err   error
	calls int
}

func (s *stubSender) Send(context.Context, models.StatusNotification) error {
	s.calls++
	return s.err
}

func TestGuardedOpensAfterFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("notifications",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	next := &stubSender{err: errors.New("provider down")}
	g := NewGuarded(next, breaker, discardLogger())

	assert.Error(t, g.Send(context.Background(), testNotification()))
	assert.Error(t, g.Send(context.Background(), testNotification()))
	assert.ErrorIs(t, g.Send(context.Background(), testNotification()), ErrCircuitOpen)
	assert.Equal(t, 2, next.calls, "open circuit must not reach the provider")

	now = now.Add(2 * time.Minute)
	next.err = nil
	assert.NoError(t, g.Send(context.Background(), testNotification()))
	assert.Equal(t, 3, next.calls)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(render.New("Numerano Code Challenge"), discardLogger())
	assert.NoError(t, s.Send(context.Background(), testNotification()))
}
