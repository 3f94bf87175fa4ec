package grid

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/history"
	"github.com/specialistvlad/sparsegrid/internal/sparse"
)

// Insert inserts count empty rows, columns or tables before sel as one
// undoable step.
func (g *Grid) Insert(ctx context.Context, sel coord.AxisSelector, count int) error {
	g.log.Mark()
	return g.insert(ctx, sel, count, count, nil)
}

// Remove deletes count rows, columns or tables starting at sel as one
// undoable step.
func (g *Grid) Remove(ctx context.Context, sel coord.AxisSelector, count int) error {
	g.log.Mark()
	return g.remove(ctx, sel, count)
}

func checkAxisOp(sel coord.AxisSelector, count int) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("%w: count must be positive, got %d", coord.ErrBounds, count)
	}
	return nil
}

// insert shifts every cell at or after sel by count along its axis, grows
// the shape by grow and then writes restore back. restore is the snapshot
// taken by the remove this insert undoes; grow is smaller than count only
// when that remove was clamped by the shape.
func (g *Grid) insert(ctx context.Context, sel coord.AxisSelector, count, grow int, restore map[coord.Coordinate]sparse.Cell) error {
	if err := checkAxisOp(sel, count); err != nil {
		return err
	}
	if grow < 0 || grow > count {
		return fmt.Errorf("%w: growth %d outside 0..%d", coord.ErrBounds, grow, count)
	}
	g.engine.Invalidate(ctx)
	g.log.Record(history.InsertAxis{Sel: sel, Count: count, Grow: grow, Cells: restore})

	shape := g.store.Shape()
	if _, err := g.store.Resize(shape.With(sel.Axis, shape.Len(sel.Axis)+grow)); err != nil {
		return err
	}

	moved := g.shift(sel.Axis, func(v int) bool { return v >= sel.Pos }, count)
	for c, cell := range restore {
		g.store.Set(c, cell.Clone())
	}

	ctxlog.FromContext(ctx).Debug("Inserted along axis.",
		"selector", sel.String(), "count", count, "moved", moved, "restored", len(restore), "shape", g.store.Shape().String())
	return nil
}

// remove deletes the cells in [sel, sel+count) along the axis, shifts the
// cells after them back and shrinks the shape, never below 1.
func (g *Grid) remove(ctx context.Context, sel coord.AxisSelector, count int) error {
	if err := checkAxisOp(sel, count); err != nil {
		return err
	}
	g.engine.Invalidate(ctx)

	a, end := sel.Axis, sel.Pos+count
	snapshot := make(map[coord.Coordinate]sparse.Cell)
	for _, c := range g.store.Keys() {
		if v := c.Get(a); v >= sel.Pos && v < end {
			cell, _ := g.store.Remove(c)
			snapshot[c] = cell
		}
	}
	moved := g.shift(a, func(v int) bool { return v >= end }, -count)

	shape := g.store.Shape()
	n := shape.Len(a)
	shrink := min(count, max(0, n-sel.Pos))
	size := max(n-shrink, 1)
	dropped, err := g.store.Resize(shape.With(a, size))
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		ctxlog.FromContext(ctx).Warn("Cells outside the shrunk shape were dropped.", "count", len(dropped))
	}

	g.log.Record(history.RemoveAxis{Sel: sel, Count: count, Shrunk: n - size, Cells: snapshot})
	ctxlog.FromContext(ctx).Debug("Removed along axis.",
		"selector", sel.String(), "count", count, "deleted", len(snapshot), "moved", moved, "shape", g.store.Shape().String())
	return nil
}

// shift moves every stored cell whose coordinate on axis a satisfies match
// by delta along a. All matching cells are taken out before any is put back
// so moved cells never overwrite each other.
func (g *Grid) shift(a coord.Axis, match func(int) bool, delta int) int {
	moved := make(map[coord.Coordinate]sparse.Cell)
	for _, c := range g.store.Keys() {
		if v := c.Get(a); match(v) {
			cell, _ := g.store.Remove(c)
			moved[c.With(a, v+delta)] = cell
		}
	}
	for c, cell := range moved {
		g.store.Set(c, cell)
	}
	return len(moved)
}
