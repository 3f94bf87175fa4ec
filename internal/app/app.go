package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/grid"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	ctx     context.Context
	logger  *slog.Logger
	config  *Config
	sheet   *Sheet
	gateway *Gateway

	httpServer    *http.Server
	gatewayServer *http.Server
}

// NewApp is the constructor for the main application. It builds the logger
// and the grid and, when a sheet file is configured and exists, loads it.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	g, err := grid.New(grid.WithShape(cfg.GridShape()), grid.WithMaxDepth(cfg.MaxEvalDepth))
	if err != nil {
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}
	g.SetSafeMode(cfg.SafeMode)
	logger.Debug("Grid created.", "grid_id", g.ID().String(), "shape", g.Shape().String(), "safe_mode", cfg.SafeMode)

	sheet := NewSheet(g, cfg.SheetPath)
	if cfg.SheetPath != "" {
		if _, err := os.Stat(cfg.SheetPath); errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Sheet file does not exist yet, starting empty.", "path", cfg.SheetPath)
		} else if err := sheet.Load(ctx); err != nil {
			return nil, err
		}
	}

	return &App{
		outW:    outW,
		ctx:     ctx,
		logger:  logger,
		config:  cfg,
		sheet:   sheet,
		gateway: NewGateway(sheet),
	}, nil
}

// Context returns the application context carrying its logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Sheet returns the grid shared by every surface of the application.
func (a *App) Sheet() *Sheet {
	return a.sheet
}

// Gateway returns the socket.io request handler.
func (a *App) Gateway() *Gateway {
	return a.gateway
}
