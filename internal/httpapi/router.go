package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clubhub/wifimon/internal/metrics"
)

// NewRouter builds the routing tree for the admin API.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(RequestLogger(api))

	r.Get("/healthz", api.health)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	// The event stream is long-lived, so it stays outside the timeout.
	r.Get("/api/events", api.events)

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(20 * time.Second))
		g.Route("/api", func(apiRouter chi.Router) {
			apiRouter.Get("/members", api.listMembers)
			apiRouter.Post("/members", api.registerMember)
			apiRouter.Delete("/members/{mac}", api.deleteMember)
			apiRouter.Get("/status", api.status)
			apiRouter.Post("/refresh", api.refresh)
		})
	})

	return r
}

// RunServer starts and gracefully stops the HTTP server with context
// cancellation.
func RunServer(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
