package grid_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/specialistvlad/sparsegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var red = cty.StringVal("red")

func TestGrid_EnsureAttribute(t *testing.T) {
	g := testutil.NewGrid(t, shape, nil)
	c := coord.C(3, 3, 1)

	require.NoError(t, g.EnsureAttribute(c, "bgcolor"))
	assert.Equal(t, 1, g.Len(), "an absent cell is materialised")
	assert.Equal(t, "", g.Text(c))

	def, ok := g.Schema().Default("bgcolor")
	require.True(t, ok)
	assert.True(t, g.Attribute(c, "bgcolor").RawEquals(def))

	require.ErrorIs(t, g.EnsureAttribute(c, "sparkle"), grid.ErrUnknownAttribute)
}

func TestGrid_SetAttributeUndo(t *testing.T) {
	ctx, _ := testutil.Context(t)
	g := testutil.NewGrid(t, shape, nil)
	c := coord.C(1, 2, 0)

	require.NoError(t, g.SetAttribute(ctx, c, "bgcolor", red))
	assert.True(t, g.Attribute(c, "bgcolor").RawEquals(red))
	assert.Equal(t, 1, g.Len())

	require.NoError(t, g.Write(ctx, c, "5"))
	assert.True(t, g.Attribute(c, "bgcolor").RawEquals(red), "writing text keeps attributes")

	require.NoError(t, g.Undo(ctx))
	require.NoError(t, g.Undo(ctx))
	assert.Equal(t, 0, g.Len(), "undo leaves no empty default cell behind")

	require.NoError(t, g.Redo(ctx))
	assert.True(t, g.Attribute(c, "bgcolor").RawEquals(red))
}

func TestGrid_SetAttributeValidates(t *testing.T) {
	ctx, _ := testutil.Context(t)
	g := testutil.NewGrid(t, shape, nil)

	require.ErrorIs(t, g.SetAttribute(ctx, coord.C(0, 0, 0), "sparkle", red), grid.ErrUnknownAttribute)
	require.ErrorIs(t, g.SetAttribute(ctx, coord.C(9, 0, 0), "bgcolor", red), coord.ErrBounds)
	assert.False(t, g.CanUndo())
}

func TestGrid_EmptyTextKeepsAttributedCell(t *testing.T) {
	ctx, _ := testutil.Context(t)
	g := testutil.NewGrid(t, shape, map[coord.Coordinate]string{coord.C(0, 0, 0): "1"})

	require.NoError(t, g.SetAttribute(ctx, coord.C(0, 0, 0), "underline", cty.True))
	require.NoError(t, g.Write(ctx, coord.C(0, 0, 0), ""))
	assert.Equal(t, []coord.Coordinate{coord.C(0, 0, 0)}, g.Keys())
}

func TestGrid_CopyAttributes(t *testing.T) {
	ctx, _ := testutil.Context(t)
	g := testutil.NewGrid(t, shape, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "1",
		coord.C(4, 0, 0): "x",
	})
	require.NoError(t, g.SetAttribute(ctx, coord.C(0, 0, 0), "bgcolor", red))

	require.NoError(t, g.CopyAttributes(coord.C(0, 0, 0), coord.C(4, 0, 0)))
	assert.True(t, g.Attribute(coord.C(4, 0, 0), "bgcolor").RawEquals(red))
	assert.Equal(t, "x", g.Text(coord.C(4, 0, 0)))

	attrs := g.Attributes(coord.C(4, 0, 0))
	assert.Len(t, attrs, len(g.Schema().Names()))
	assert.True(t, attrs["underline"].RawEquals(cty.False))
}

func TestGrid_CopyAttributesFromAbsentCell(t *testing.T) {
	g := testutil.NewGrid(t, shape, nil)

	require.NoError(t, g.CopyAttributes(coord.C(1, 1, 0), coord.C(2, 2, 0)))
	assert.Zero(t, g.Len())
}

func TestGrid_AttributeOpsOutsideShape(t *testing.T) {
	ctx, _ := testutil.Context(t)
	g := testutil.NewGrid(t, coord.Shape{Rows: 3, Cols: 3, Tabs: 1}, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "1",
	})
	require.NoError(t, g.SetAttribute(ctx, coord.C(0, 0, 0), "bgcolor", red))

	for _, c := range []coord.Coordinate{coord.C(50, 0, 0), coord.C(0, 3, 0), coord.C(-1, 0, 0)} {
		require.ErrorIs(t, g.EnsureAttribute(c, "bgcolor"), coord.ErrBounds, "ensure %s", c)
		require.ErrorIs(t, g.CopyAttributes(coord.C(0, 0, 0), c), coord.ErrBounds, "copy to %s", c)
	}
	assert.Equal(t, []coord.Coordinate{coord.C(0, 0, 0)}, g.Keys())

	// Whatever the grid holds can be restored.
	require.NoError(t, g.Restore(ctx, g.Snapshot()))
	assert.True(t, g.Attribute(coord.C(0, 0, 0), "bgcolor").RawEquals(red))
}

func TestGrid_SnapshotRestore(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := testutil.NewGrid(t, shape, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "20",
		coord.C(0, 1, 0): "inc(S(0, 0, 0))",
	})
	require.NoError(t, src.SetAttribute(ctx, coord.C(0, 0, 0), "bgcolor", red))
	_, _, err := src.AddMacro(ctx, "function \"inc\" {\n  params = [v]\n  result = v + 1\n}\n")
	require.NoError(t, err)

	snap := src.Snapshot()
	require.Len(t, snap.Cells, 2)
	assert.Equal(t, coord.C(0, 0, 0), snap.Cells[0].Coord)

	dst := testutil.NewGrid(t, coord.Shape{Rows: 1, Cols: 1, Tabs: 1}, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "stale",
	})
	dst.SetSafeMode(true)
	require.NoError(t, dst.Write(ctx, coord.C(0, 0, 0), "fresh"))

	require.NoError(t, dst.Restore(ctx, snap))
	assert.Equal(t, shape, dst.Shape())
	testutil.AssertContents(t, dst, testutil.Contents(src))
	assert.True(t, dst.Attribute(coord.C(0, 0, 0), "bgcolor").RawEquals(red))
	assert.False(t, dst.CanUndo())
	assert.True(t, dst.SafeMode())

	dst.SetSafeMode(false)
	testutil.RequireValue(t, ctx, dst, coord.C(0, 1, 0), cty.NumberIntVal(21))
}

func TestGrid_RestoreRejectsCellsOutsideShape(t *testing.T) {
	ctx, _ := testutil.Context(t)
	g := testutil.NewGrid(t, shape, map[coord.Coordinate]string{coord.C(0, 0, 0): "keep"})

	err := g.Restore(ctx, grid.Snapshot{
		Shape: coord.Shape{Rows: 1, Cols: 1, Tabs: 1},
		Cells: []grid.CellRecord{{Coord: coord.C(2, 0, 0), Text: "1"}},
	})
	require.ErrorIs(t, err, coord.ErrBounds)
	testutil.AssertContents(t, g, map[coord.Coordinate]string{coord.C(0, 0, 0): "keep"})
}

func TestGrid_New(t *testing.T) {
	g, err := grid.New()
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, g.ID())
	assert.Equal(t, grid.DefaultShape, g.Shape())

	_, err = grid.New(grid.WithShape(coord.Shape{Rows: 0, Cols: 1, Tabs: 1}))
	require.Error(t, err)
}
