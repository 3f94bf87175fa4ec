package app

import (
	"testing"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/specialistvlad/sparsegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, cells map[coord.Coordinate]string) (*Gateway, *grid.Grid) {
	t.Helper()
	g := testutil.NewGrid(t, coord.Shape{Rows: 5, Cols: 5, Tabs: 1}, cells)
	return NewGateway(NewSheet(g, "")), g
}

func TestGateway_WriteReadUndo(t *testing.T) {
	ctx, _ := testutil.Context(t)
	gw, g := newTestGateway(t, nil)

	resp := gw.Handle(ctx, EventWrite, map[string]any{"key": "0,0,0", "text": "1 + 2"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, EventWrite, resp.Event)
	assert.Equal(t, g.ID().String(), resp.GridID)

	resp = gw.Handle(ctx, EventRead, map[string]any{"key": "0,0,0"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "3", resp.Value)

	resp = gw.Handle(ctx, EventText, map[string]any{"key": "0,0,0"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "1 + 2", resp.Value)

	resp = gw.Handle(ctx, EventUndo, nil)
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 0, g.Len())

	resp = gw.Handle(ctx, EventRedo, nil)
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "1 + 2", g.Text(coord.C(0, 0, 0)))
}

func TestGateway_ReadRange(t *testing.T) {
	ctx, _ := testutil.Context(t)
	gw, _ := newTestGateway(t, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "1",
		coord.C(1, 0, 0): "2",
	})

	resp := gw.Handle(ctx, EventRead, map[string]any{"key": "0:2,0,0"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "[1, 2]", resp.Value)
}

func TestGateway_TextRange(t *testing.T) {
	ctx, _ := testutil.Context(t)
	gw, _ := newTestGateway(t, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "1",
		coord.C(0, 1, 0): "S(0, 0, 0) * 2",
	})

	resp := gw.Handle(ctx, EventText, map[string]any{"key": "0,0:2,0"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "0,0:2,0", resp.Key)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, `["1", "S(0, 0, 0) * 2"]`, resp.Value)

	resp = gw.Handle(ctx, EventText, map[string]any{"key": "0:2,0:2,0"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, `[["1", "S(0, 0, 0) * 2"], ["", ""]]`, resp.Value)

	resp = gw.Handle(ctx, EventText, map[string]any{"key": "0,0:2:0,0"})
	assert.False(t, resp.OK)
}

func TestGateway_AxisAndSpread(t *testing.T) {
	ctx, _ := testutil.Context(t)
	gw, g := newTestGateway(t, map[coord.Coordinate]string{coord.C(0, 0, 0): "x"})

	resp := gw.Handle(ctx, EventInsert, map[string]any{"axis": "row", "pos": 0})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "x", g.Text(coord.C(1, 0, 0)))

	resp = gw.Handle(ctx, EventRemove, map[string]any{"axis": "row", "pos": 0, "count": 1})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "x", g.Text(coord.C(0, 0, 0)))

	resp = gw.Handle(ctx, EventSpread, map[string]any{
		"key":   "2,0,0",
		"value": []any{[]any{1, 2}, []any{3, 4}},
	})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, "4", g.Text(coord.C(3, 1, 0)))
}

func TestGateway_FindAndMacro(t *testing.T) {
	ctx, _ := testutil.Context(t)
	gw, _ := newTestGateway(t, map[coord.Coordinate]string{
		coord.C(0, 0, 0): `"apple"`,
		coord.C(3, 1, 0): `"Pear"`,
		coord.C(4, 0, 0): "twice(4)",
	})

	resp := gw.Handle(ctx, EventFind, map[string]any{"pattern": "pear"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "3,1,0", resp.Key)

	resp = gw.Handle(ctx, EventFind, map[string]any{"pattern": "pear", "flags": []string{"DOWN", "MATCH_CASE"}})
	require.True(t, resp.OK, resp.Error)
	assert.Empty(t, resp.Key)

	src := "function \"twice\" {\n  params = [x]\n  result = x * 2\n}\n"
	resp = gw.Handle(ctx, EventMacro, map[string]any{"text": src})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "twice", resp.Value)

	resp = gw.Handle(ctx, EventRead, map[string]any{"key": "4,0,0"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "8", resp.Value)

	resp = gw.Handle(ctx, EventMacro, map[string]any{"text": src})
	assert.False(t, resp.OK)
}

func TestGateway_Globals(t *testing.T) {
	ctx, _ := testutil.Context(t)
	gw, _ := newTestGateway(t, map[coord.Coordinate]string{
		coord.C(0, 0, 0): "rate = 4",
		coord.C(0, 1, 0): `label = "net"`,
	})

	resp := gw.Handle(ctx, EventRead, map[string]any{"key": "0,0:2,0"})
	require.True(t, resp.OK, resp.Error)

	resp = gw.Handle(ctx, EventGlobals, nil)
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "label,rate", resp.Value)

	resp = gw.Handle(ctx, EventGlobals, map[string]any{"text": "rate"})
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "rate", resp.Key)
	assert.Equal(t, "4", resp.Value)

	resp = gw.Handle(ctx, EventGlobals, map[string]any{"text": "missing"})
	assert.False(t, resp.OK)
}

func TestGateway_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		event   string
		payload any
	}{
		{name: "unknown event", event: "explode", payload: nil},
		{name: "missing key", event: EventWrite, payload: map[string]any{"text": "1"}},
		{name: "range write", event: EventWrite, payload: map[string]any{"key": "0:2,0,0", "text": "1"}},
		{name: "outside shape", event: EventWrite, payload: map[string]any{"key": "9,0,0", "text": "1"}},
		{name: "bad axis", event: EventInsert, payload: map[string]any{"axis": "diagonal"}},
		{name: "negative count", event: EventRemove, payload: map[string]any{"axis": "row", "count": -1}},
		{name: "bad flags", event: EventFind, payload: map[string]any{"pattern": "a", "flags": []string{"UP", "DOWN"}}},
		{name: "spread without value", event: EventSpread, payload: map[string]any{"key": "0,0,0"}},
		{name: "failing cell", event: EventRead, payload: map[string]any{"key": "1,1,0"}},
		{name: "save without file", event: EventSave, payload: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			gw, _ := newTestGateway(t, map[coord.Coordinate]string{coord.C(1, 1, 0): "S(1, 1, 0)"})

			resp := gw.Handle(ctx, tc.event, tc.payload)
			assert.False(t, resp.OK)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tc.event, resp.Event)
		})
	}
}
