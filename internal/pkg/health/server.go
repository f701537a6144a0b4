package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oddsradar/oddsradar/internal/pkg/health/handlers"
)

// Run starts the diagnostics HTTP server and blocks until it stops. The
// server shuts down gracefully when the context is cancelled.
func Run(ctx context.Context, addr string, readHeaderTimeout time.Duration) {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/ping", handlers.HandlePing)
	mux.HandleFunc("/health", handlers.HandleHealth)

	// Last cycle stats
	mux.HandleFunc("/metrics", handlers.HandleStats)

	// Currently persisted aggregated fixtures
	mux.HandleFunc("/fixtures", handlers.HandleFixtures)

	// On-demand cycle trigger
	mux.HandleFunc("/run", handlers.HandleRun)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting diagnostics server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Diagnostics server failed", "error", err)
	}
}
