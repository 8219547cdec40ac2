// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"postforge/internal/controller/handlers"
	"postforge/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server. metricsHandler may be nil when
// metrics are disabled.
func New(addr string, store handlers.StoreFactory, runner handlers.ManualRunner, gate handlers.ResilienceGate, metricsHandler http.Handler) *Server {
	h := handlers.New(store, runner, gate)
	authMW := middleware.AuthMiddleware(store)
	rateMW := middleware.RateLimitMiddleware()

	guard := func(hf http.HandlerFunc) http.Handler {
		return authMW(rateMW(hf))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Bootstrap endpoint: mint the first key, then lock this down at
	// the network level.
	mux.HandleFunc("POST /keys", h.CreateAPIKey)

	mux.Handle("POST /schedules", guard(h.CreateSchedule))
	mux.Handle("POST /schedules/bulk", guard(h.BulkCreateSchedules))
	mux.Handle("GET /schedules", guard(h.ListSchedules))
	mux.Handle("GET /schedules/{id}", guard(h.GetSchedule))
	mux.Handle("DELETE /schedules/{id}", guard(h.DeleteSchedule))
	mux.Handle("POST /schedules/{id}/run", guard(h.RunSchedule))

	mux.Handle("POST /templates", guard(h.CreateTemplate))
	mux.Handle("GET /templates", guard(h.ListTemplates))
	mux.Handle("GET /templates/{id}", guard(h.GetTemplate))
	mux.Handle("PUT /templates/{id}", guard(h.UpdateTemplate))
	mux.Handle("DELETE /templates/{id}", guard(h.DeleteTemplate))

	mux.Handle("GET /history", guard(h.ListHistory))
	mux.Handle("GET /history/{id}", guard(h.GetHistory))
	mux.Handle("GET /history/{id}/logs", guard(h.GetHistoryLogs))

	mux.Handle("GET /resilience/status", guard(h.ResilienceStatus))
	mux.Handle("POST /resilience/reset", guard(h.ResetResilience))

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Manual runs execute the full generation pipeline in-request.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
