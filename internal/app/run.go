package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
	"golang.org/x/sync/errgroup"
)

// Serve runs the health and metrics server, the socket.io gateway and the
// sheet watcher, each when configured, until ctx is cancelled or one of them
// fails.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Serve method started.")

	g, gctx := errgroup.WithContext(ctx)
	started := 0

	if a.config.HTTPPort > 0 {
		a.httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", a.config.HTTPPort),
			Handler: a.healthMux(),
		}
		g.Go(func() error { return runHTTPServer(gctx, "health", a.httpServer) })
		started++
	} else {
		a.logger.Warn("Health check server not started: disabled")
	}

	if a.config.GatewayAddr != "" {
		sio := socket.NewServer(nil, nil)
		a.gateway.Attach(gctx, sio)

		mux := http.NewServeMux()
		mux.Handle("/socket.io/", sio.ServeHandler(nil))
		a.gatewayServer = &http.Server{Addr: a.config.GatewayAddr, Handler: mux}

		g.Go(func() error { return runHTTPServer(gctx, "gateway", a.gatewayServer) })
		g.Go(func() error {
			<-gctx.Done()
			sio.Close(nil)
			return nil
		})
		started++
	}

	if a.config.Watch {
		g.Go(func() error { return watchSheet(gctx, a.sheet) })
		started++
	}

	if started == 0 {
		a.logger.Warn("Nothing to serve: enable the health server, the gateway or the sheet watcher.")
		return nil
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Stopping services...")
		errH := shutdownHTTPServer(gctx, "health", a.httpServer)
		errG := shutdownHTTPServer(gctx, "gateway", a.gatewayServer)
		if errH != nil {
			return errH
		}
		return errG
	})

	err := g.Wait()
	a.logger.Debug("App.Serve method finished.", "error", err)
	return err
}
