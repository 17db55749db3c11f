package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"numerano/internal/platform/config"
)

// New builds the public listener. Request contexts carry base's values but
// not its cancellation, so a shutdown signal does not abort requests that
// Shutdown is draining.
func New(base context.Context, addr string, cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(base)
		},
	}
	if logger != nil {
		srv.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	}
	return srv
}
