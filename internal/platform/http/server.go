package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"cbrates/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const defaultShutdownTimeout = 10 * time.Second

// Start runs the HTTP server until ctx is canceled, then drains in-flight
// requests within the configured shutdown timeout.
func Start(ctx context.Context, cfg config.HTTPServer, router *chi.Mux) error {
	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return err
	}
	logrus.Infof("✅ HTTP server listening on %s", cfg.Port)

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		serveErr := server.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
		errCh <- serveErr
	}()

	select {
	case <-ctx.Done():
		timeout := time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		logrus.Infof("HTTP server draining connections, up to %s", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case serveErr := <-errCh:
		return serveErr
	}
}
