package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/specialistvlad/sparsegrid/internal/sheetfile"
)

// Sheet serialises access to the grid shared by the gateway, the file
// watcher and the CLI.
type Sheet struct {
	mu   sync.Mutex
	grid *grid.Grid
	path string
	// saved is the file content last written by save, nil when the file
	// may have changed since.
	saved []byte
}

var errNoSheetFile = errors.New("no sheet file configured")

// NewSheet wraps g. path is the sheet file Load and Save use; it may be
// empty.
func NewSheet(g *grid.Grid, path string) *Sheet {
	return &Sheet{grid: g, path: path}
}

// Do runs fn with exclusive access to the grid.
func (s *Sheet) Do(fn func(g *grid.Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.grid)
}

// Path returns the sheet file path.
func (s *Sheet) Path() string {
	return s.path
}

// Load replaces the grid's contents with the sheet file.
func (s *Sheet) Load(ctx context.Context) error {
	if s.path == "" {
		return errNoSheetFile
	}
	snap, err := sheetfile.Load(ctx, s.path)
	if err != nil {
		return err
	}
	err = s.Do(func(g *grid.Grid) error {
		return g.Restore(ctx, snap)
	})
	if err != nil {
		return fmt.Errorf("failed to load sheet %s: %w", s.path, err)
	}
	ctxlog.FromContext(ctx).Info("Sheet loaded.", "path", s.path, "cells", len(snap.Cells), "shape", snap.Shape.String())
	return nil
}

// Reload loads the sheet file again after it changed on disk. A file that
// still holds what Save last wrote is left alone, so the grid keeps its undo
// history.
func (s *Sheet) Reload(ctx context.Context) error {
	if s.path == "" {
		return errNoSheetFile
	}
	logger := ctxlog.FromContext(ctx).With("path", s.path)
	src, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read sheet file %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved != nil && bytes.Equal(src, s.saved) {
		logger.Debug("Sheet file matches the last save, not reloading.")
		return nil
	}
	snap, err := sheetfile.Parse(src, s.path)
	if err != nil {
		return err
	}
	if undo, redo := s.grid.HistorySteps(); undo+redo > 0 {
		logger.Warn("Sheet file changed on disk, discarding in-memory edits.", "undo_steps", undo, "redo_steps", redo)
	}
	if err := s.grid.Restore(ctx, snap); err != nil {
		return fmt.Errorf("failed to load sheet %s: %w", s.path, err)
	}
	s.saved = nil
	logger.Info("Sheet reloaded.", "cells", len(snap.Cells), "shape", snap.Shape.String())
	return nil
}

// Save writes the grid to the sheet file.
func (s *Sheet) Save(ctx context.Context) error {
	return s.Do(func(g *grid.Grid) error {
		return s.save(ctx, g)
	})
}

// save writes g to the sheet file. The caller holds s.mu.
func (s *Sheet) save(ctx context.Context, g *grid.Grid) error {
	if s.path == "" {
		return errNoSheetFile
	}
	snap := g.Snapshot()
	if err := sheetfile.Save(ctx, s.path, snap); err != nil {
		return err
	}
	s.saved = sheetfile.Encode(snap)
	return nil
}
