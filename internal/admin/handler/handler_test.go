package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"numerano/internal/admin/credentials"
	"numerano/internal/admin/service"
	"numerano/internal/admin/token"
	adminmw "numerano/pkg/platform/middleware/admin"
	"numerano/pkg/testutil"
)

func TestLoginThenAccessAdminRoute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens := token.New("test-signing-key", "numerano", time.Hour)
	svc := service.New(credentials.NewChecker("admin", string(hash)), tokens)

	router := chi.NewRouter()
	New(svc, logger).Register(router)
	router.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdmin(tokens, logger))
		r.Get("/admin/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	t.Run("bad password", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "nope"})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("token opens admin routes", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "s3cret"})
		rr := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		resp := testutil.UnmarshalResponse[LoginResponse](t, rr)
		assert.Equal(t, "Bearer", resp.TokenType)

		ping := testutil.NewRequest(t, http.MethodGet, "/admin/ping")
		ping.Header.Set("Authorization", "Bearer "+resp.AccessToken)
		assert.Equal(t, http.StatusNoContent, testutil.DoRequest(router, ping).Code)
	})

	t.Run("no token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin/ping"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
