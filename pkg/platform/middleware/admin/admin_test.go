package admin

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"numerano/pkg/requestcontext"
)

type stubValidator struct {
	subject string
	err     error
}

func (s stubValidator) ValidateToken(string) (string, error) {
	return s.subject, s.err
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newHandler := func(v TokenValidator, seen *string) http.Handler {
		return RequireAdmin(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*seen = requestcontext.Admin(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))
	}

	t.Run("missing header", func(t *testing.T) {
		var seen string
		rec := httptest.NewRecorder()
		newHandler(stubValidator{subject: "admin"}, &seen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, seen)
	})

	t.Run("invalid token", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		newHandler(stubValidator{err: errors.New("bad")}, &seen).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token sets admin subject", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		newHandler(stubValidator{subject: "admin"}, &seen).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "admin", seen)
	})
}
