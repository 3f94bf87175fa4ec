package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/attrs"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/history"
	"github.com/specialistvlad/sparsegrid/internal/sparse"
	"github.com/zclconf/go-cty/cty"
)

// ErrUnknownAttribute is returned for attribute names outside the schema.
var ErrUnknownAttribute = errors.New("unknown attribute")

// Attribute returns the attribute name of c, or its default.
func (g *Grid) Attribute(c coord.Coordinate, name string) cty.Value {
	return g.store.Get(c).Attrs.Get(g.cfg.schema, name)
}

// Attributes returns every schema attribute of c.
func (g *Grid) Attributes(c coord.Coordinate) map[string]cty.Value {
	set := g.store.Get(c).Attrs
	out := make(map[string]cty.Value, len(g.cfg.schema))
	for _, name := range g.cfg.schema.Names() {
		out[name] = set.Get(g.cfg.schema, name)
	}
	return out
}

// EnsureAttribute attaches an attribute set to c holding name, seeded with
// its default. Existing values are kept. An absent cell becomes an empty
// cell carrying attributes.
func (g *Grid) EnsureAttribute(c coord.Coordinate, name string) error {
	if !g.cfg.schema.Known(name) {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	if err := g.checkBounds(c); err != nil {
		return err
	}
	cell := g.store.Get(c)
	cell.Attrs = cell.Attrs.Clone().Ensure(g.cfg.schema, name)
	g.store.Set(c, cell)
	return nil
}

// SetAttribute sets attribute name of c as one undoable step.
func (g *Grid) SetAttribute(ctx context.Context, c coord.Coordinate, name string, value cty.Value) error {
	g.log.Mark()
	return g.setAttribute(ctx, c, name, value)
}

func (g *Grid) setAttribute(_ context.Context, c coord.Coordinate, name string, value cty.Value) error {
	if !g.cfg.schema.Known(name) {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	if err := g.checkBounds(c); err != nil {
		return err
	}
	prev := g.Attribute(c, name)
	if prev.RawEquals(value) {
		return nil
	}
	g.log.Record(history.SetAttribute{Coord: c, Name: name, Value: value, Prev: prev})

	cell := g.store.Get(c)
	set := cell.Attrs.Clone()
	if set == nil {
		set = make(attrs.Set)
	}
	set[name] = value
	g.put(c, sparse.Cell{Text: cell.Text, Attrs: set})
	return nil
}

// CopyAttributes copies the attributes stored on from onto to, leaving the
// text of to untouched. Attributes from does not carry are skipped. to must
// lie inside the shape.
func (g *Grid) CopyAttributes(from, to coord.Coordinate) error {
	if err := g.checkBounds(to); err != nil {
		return err
	}
	src, ok := g.store.Lookup(from)
	if !ok || src.Attrs == nil {
		return nil
	}
	dst := g.store.Get(to)
	g.put(to, sparse.Cell{Text: dst.Text, Attrs: attrs.Copy(g.cfg.schema, src.Attrs, dst.Attrs.Clone())})
	return nil
}

// replayer applies operations replayed by the undo log. Its methods never
// mark the log.
type replayer struct {
	g *Grid
}

func (r replayer) WriteCell(ctx context.Context, c coord.Coordinate, text string) error {
	return r.g.write(ctx, c, text)
}

func (r replayer) InsertAxis(ctx context.Context, sel coord.AxisSelector, count, grow int, cells map[coord.Coordinate]sparse.Cell) error {
	return r.g.insert(ctx, sel, count, grow, cells)
}

func (r replayer) RemoveAxis(ctx context.Context, sel coord.AxisSelector, count int) error {
	return r.g.remove(ctx, sel, count)
}

func (r replayer) SetAttribute(ctx context.Context, c coord.Coordinate, name string, value cty.Value) error {
	return r.g.setAttribute(ctx, c, name, value)
}
