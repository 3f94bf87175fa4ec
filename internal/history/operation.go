package history

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/sparse"
	"github.com/zclconf/go-cty/cty"
)

// Target is what replayed operations mutate. Implementations must not mark
// the log; anything they record while a replay is running is discarded.
type Target interface {
	WriteCell(ctx context.Context, c coord.Coordinate, text string) error
	InsertAxis(ctx context.Context, sel coord.AxisSelector, count, grow int, cells map[coord.Coordinate]sparse.Cell) error
	RemoveAxis(ctx context.Context, sel coord.AxisSelector, count int) error
	SetAttribute(ctx context.Context, c coord.Coordinate, name string, value cty.Value) error
}

// Operation is one primitive grid mutation together with the state needed
// to reverse it. The set of operations is closed: WriteCell, InsertAxis,
// RemoveAxis and SetAttribute.
type Operation interface {
	// Apply performs the operation on t.
	Apply(ctx context.Context, t Target) error

	// Invert returns the operation that undoes this one.
	Invert() Operation

	String() string

	isOperation()
}

// WriteCell replaces the text at Coord. Prev is the text it replaced.
type WriteCell struct {
	Coord coord.Coordinate
	Text  string
	Prev  string
}

func (o WriteCell) Apply(ctx context.Context, t Target) error {
	return t.WriteCell(ctx, o.Coord, o.Text)
}

func (o WriteCell) Invert() Operation {
	return WriteCell{Coord: o.Coord, Text: o.Prev, Prev: o.Text}
}

func (o WriteCell) String() string {
	return fmt.Sprintf("write %s %q", o.Coord, o.Text)
}

// InsertAxis shifts the cells at or after Sel by Count, grows the shape by
// Grow and then restores Cells, the snapshot taken when the same slices were
// removed. Grow equals Count except when it undoes a removal the shape
// clamped.
type InsertAxis struct {
	Sel   coord.AxisSelector
	Count int
	Grow  int
	Cells map[coord.Coordinate]sparse.Cell
}

func (o InsertAxis) Apply(ctx context.Context, t Target) error {
	return t.InsertAxis(ctx, o.Sel, o.Count, o.Grow, cloneCells(o.Cells))
}

func (o InsertAxis) Invert() Operation {
	return RemoveAxis{Sel: o.Sel, Count: o.Count, Shrunk: o.Grow, Cells: o.Cells}
}

func (o InsertAxis) String() string {
	return fmt.Sprintf("insert %d at %s", o.Count, o.Sel)
}

// RemoveAxis deletes Count slices starting at Sel. Shrunk is how much the
// shape actually lost and Cells the snapshot of what the removal deleted,
// both handed back to the inverse insert.
type RemoveAxis struct {
	Sel    coord.AxisSelector
	Count  int
	Shrunk int
	Cells  map[coord.Coordinate]sparse.Cell
}

func (o RemoveAxis) Apply(ctx context.Context, t Target) error {
	return t.RemoveAxis(ctx, o.Sel, o.Count)
}

func (o RemoveAxis) Invert() Operation {
	return InsertAxis{Sel: o.Sel, Count: o.Count, Grow: o.Shrunk, Cells: o.Cells}
}

func (o RemoveAxis) String() string {
	return fmt.Sprintf("remove %d at %s", o.Count, o.Sel)
}

// SetAttribute sets one attribute of the cell at Coord.
type SetAttribute struct {
	Coord coord.Coordinate
	Name  string
	Value cty.Value
	Prev  cty.Value
}

func (o SetAttribute) Apply(ctx context.Context, t Target) error {
	return t.SetAttribute(ctx, o.Coord, o.Name, o.Value)
}

func (o SetAttribute) Invert() Operation {
	return SetAttribute{Coord: o.Coord, Name: o.Name, Value: o.Prev, Prev: o.Value}
}

func (o SetAttribute) String() string {
	return fmt.Sprintf("set %s.%s", o.Coord, o.Name)
}

func (WriteCell) isOperation()    {}
func (InsertAxis) isOperation()   {}
func (RemoveAxis) isOperation()   {}
func (SetAttribute) isOperation() {}

func cloneCells(cells map[coord.Coordinate]sparse.Cell) map[coord.Coordinate]sparse.Cell {
	if cells == nil {
		return nil
	}
	out := make(map[coord.Coordinate]sparse.Cell, len(cells))
	for c, cell := range cells {
		out[c] = cell.Clone()
	}
	return out
}
