// Package server assembles the chi router and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"naturatlas/internal/config"
	"naturatlas/internal/health"
	imw "naturatlas/internal/middleware"
	"naturatlas/internal/router"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, h *router.Handlers, ready health.ReadinessReporter) error {
	r := chi.NewRouter()
	r.Use(imw.Recover())
	r.Use(imw.Logging(logger))
	r.Use(imw.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ready))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/search", h.Search())
	r.Get("/areas/{source}/{id}", h.Detail())
	r.Get("/areas/{source}/{id}/extent", h.AreaExtent())
	r.Get("/extent", h.CombinedExtent())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
