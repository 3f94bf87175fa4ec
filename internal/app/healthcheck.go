package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/grid"
)

const shutdownTimeout = 5 * time.Second

// healthHandler reports liveness together with the grid's identity.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

	var id string
	var cells int
	_ = a.sheet.Do(func(g *grid.Grid) error {
		id, cells = g.ID().String(), g.Len()
		return nil
	})
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK grid=%s cells=%d\n", id, cells)
}

// healthMux serves /health and the Prometheus /metrics endpoint.
func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// runHTTPServer serves srv until it is shut down. A graceful shutdown is
// not an error.
func runHTTPServer(ctx context.Context, name string, srv *http.Server) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Server starting.", "server", name, "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server failed: %w", name, err)
	}
	return nil
}

func shutdownHTTPServer(ctx context.Context, name string, srv *http.Server) error {
	logger := ctxlog.FromContext(ctx)
	if srv == nil {
		logger.Debug("Server was not running.", "server", name)
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...", "server", name)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "server", name, "error", err)
		return err
	}
	logger.Debug("Server shut down gracefully.", "server", name)
	return nil
}
