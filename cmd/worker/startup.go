package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"bookcatalog-backend/pkg/container"
)

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// HealthChecker runs dependency checks at startup and on /ready.
type HealthChecker struct {
	checks []check
}

func newHealthChecker(c *container.Container) *HealthChecker {
	return &HealthChecker{checks: []check{
		{"Redis Connection", c.Cache.Ping},
		{"Database Connection", c.DB.Ping},
		{"Object Storage", c.Storage.Ping},
	}}
}

// startServices performs health checks and starts the probe server.
func startServices(ctx context.Context, c *container.Container, cfg *Config) error {
	log.Info().Msg("[Startup] Catalog worker starting...")

	checker := newHealthChecker(c)
	if err := checker.checkAll(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           checker.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HealthAddr).Msg("[Health] Starting health check server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("[Health] Failed to start")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

func (h *HealthChecker) checkAll(ctx context.Context) error {
	for _, chk := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := chk.fn(checkCtx)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("check", chk.name).Msg("[Startup] Check failed")
			return fmt.Errorf("%s failed: %w", chk.name, err)
		}
		log.Info().Str("check", chk.name).Msg("[Startup] Check OK")
	}
	return nil
}

func (h *HealthChecker) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": "bookcatalog-worker"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := h.checkAll(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_READY", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "READY"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
