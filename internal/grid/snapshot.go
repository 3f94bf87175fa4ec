package grid

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/attrs"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/sparse"
)

// Snapshot is everything a persistence collaborator needs to rebuild a grid:
// its shape, every stored cell and the macro sources.
type Snapshot struct {
	Shape  coord.Shape
	Cells  []CellRecord
	Macros []string
}

// CellRecord is one stored cell of a Snapshot.
type CellRecord struct {
	Coord coord.Coordinate
	Text  string
	Attrs attrs.Set
}

// Snapshot captures the grid's persistent state. Cells are in ascending
// coordinate order.
func (g *Grid) Snapshot() Snapshot {
	keys := g.store.Keys()
	s := Snapshot{
		Shape:  g.store.Shape(),
		Cells:  make([]CellRecord, 0, len(keys)),
		Macros: g.macros.Sources(),
	}
	for _, c := range keys {
		cell := g.store.Get(c)
		s.Cells = append(s.Cells, CellRecord{Coord: c, Text: cell.Text, Attrs: cell.Attrs.Clone()})
	}
	return s
}

// Restore replaces the grid's contents with s. Results, frozen cells,
// globals, macros and history are discarded.
func (g *Grid) Restore(ctx context.Context, s Snapshot) error {
	store, err := sparse.New(s.Shape)
	if err != nil {
		return fmt.Errorf("restoring grid: %w", err)
	}
	for _, rec := range s.Cells {
		if !rec.Coord.Valid() || !s.Shape.Contains(rec.Coord) {
			return fmt.Errorf("restoring grid: %w: cell %s outside shape %s", coord.ErrBounds, rec.Coord, s.Shape)
		}
		for name := range rec.Attrs {
			if !g.cfg.schema.Known(name) {
				return fmt.Errorf("restoring grid: %w: %q on cell %s", ErrUnknownAttribute, name, rec.Coord)
			}
		}
		cell := sparse.Cell{Text: rec.Text, Attrs: rec.Attrs.Clone()}
		if cell.Attrs.IsDefault(g.cfg.schema) {
			cell.Attrs = nil
		}
		if cell.Text == "" && cell.Attrs == nil {
			continue
		}
		store.Set(rec.Coord, cell)
	}

	safe := g.engine.SafeMode()
	g.store = store
	g.scope.Reset()
	g.macros.Reset()
	g.engine = g.newEngine()
	g.engine.SetSafeMode(safe)
	g.log.Reset()

	for _, src := range s.Macros {
		if _, _, err := g.AddMacro(ctx, src); err != nil {
			return fmt.Errorf("restoring macro: %w", err)
		}
	}

	ctxlog.FromContext(ctx).Info("Grid restored.", "grid_id", g.id.String(), "cells", len(s.Cells), "macros", len(s.Macros), "shape", s.Shape.String())
	return nil
}
