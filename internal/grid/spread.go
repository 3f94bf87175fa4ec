package grid

import (
	"context"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/expr"
	"github.com/zclconf/go-cty/cty"
)

// Spread writes value into the grid with anchor as its first corner as one
// undoable step. A scalar fills one cell; the first three levels of nested
// tuples, lists or sets run along rows, columns and tables. Values are
// stored as their text. Targets outside the shape are skipped. Spread
// returns the number of cells inside the shape it wrote.
func (g *Grid) Spread(ctx context.Context, value cty.Value, anchor coord.Coordinate) (int, error) {
	g.log.Mark()

	written := 0
	var walk func(v cty.Value, depth int, at coord.Coordinate) error
	walk = func(v cty.Value, depth int, at coord.Coordinate) error {
		if depth < len(coord.Axes) && isSequence(v) {
			i := 0
			for it := v.ElementIterator(); it.Next(); i++ {
				_, el := it.Element()
				if err := walk(el, depth+1, at.With(coord.Axes[depth], at.Get(coord.Axes[depth])+i)); err != nil {
					return err
				}
			}
			return nil
		}
		if !at.Valid() || !g.store.Shape().Contains(at) {
			return nil
		}
		written++
		return g.write(ctx, at, expr.Text(v))
	}

	if err := walk(value, 0, anchor); err != nil {
		return written, err
	}
	ctxlog.FromContext(ctx).Debug("Spread value.", "anchor", anchor.String(), "written", written)
	return written, nil
}

func isSequence(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	return ty.IsTupleType() || ty.IsListType() || ty.IsSetType()
}
