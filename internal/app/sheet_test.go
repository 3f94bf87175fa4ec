package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/specialistvlad/sparsegrid/internal/sheetfile"
	"github.com/specialistvlad/sparsegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileSheet(t *testing.T) (*Sheet, *grid.Grid, string) {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{"grid.hcl": sheetSource})
	path := filepath.Join(dir, "grid.hcl")
	g := testutil.NewGrid(t, coord.Shape{Rows: 3, Cols: 3, Tabs: 1}, nil)
	return NewSheet(g, path), g, path
}

func TestGateway_Save(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sheet, g, path := newFileSheet(t)
	gw := NewGateway(sheet)

	resp := gw.Handle(ctx, EventWrite, map[string]any{"key": "1,1,0", "text": "6 * 7"})
	require.True(t, resp.OK, resp.Error)

	resp = gw.Handle(ctx, EventSave, nil)
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, path, resp.Value)
	assert.True(t, g.CanUndo())

	snap, err := sheetfile.Load(ctx, path)
	require.NoError(t, err)
	require.Len(t, snap.Cells, 1)
	assert.Equal(t, coord.C(1, 1, 0), snap.Cells[0].Coord)
	assert.Equal(t, "6 * 7", snap.Cells[0].Text)
}

func TestSheet_ReloadSkipsOwnSave(t *testing.T) {
	ctx, logs := testutil.Context(t)
	sheet, g, _ := newFileSheet(t)
	require.NoError(t, sheet.Load(ctx))

	require.NoError(t, sheet.Do(func(g *grid.Grid) error {
		return g.Write(ctx, coord.C(2, 2, 0), "7")
	}))
	require.NoError(t, sheet.Save(ctx))

	require.NoError(t, sheet.Reload(ctx))
	assert.True(t, g.CanUndo())
	assert.Equal(t, "7", g.Text(coord.C(2, 2, 0)))
	assert.Contains(t, logs.String(), "Sheet file matches the last save")
	assert.NotContains(t, logs.String(), "discarding in-memory edits")
}

func TestSheet_ReloadWarnsOnDiscardedEdits(t *testing.T) {
	ctx, logs := testutil.Context(t)
	sheet, g, path := newFileSheet(t)
	require.NoError(t, sheet.Load(ctx))

	require.NoError(t, sheet.Do(func(g *grid.Grid) error {
		return g.Write(ctx, coord.C(2, 2, 0), "7")
	}))
	require.NoError(t, os.WriteFile(path, []byte(`cell "0,0,0" { text = "changed" }`), 0o644))

	require.NoError(t, sheet.Reload(ctx))
	assert.Equal(t, "changed", g.Text(coord.C(0, 0, 0)))
	assert.Empty(t, g.Text(coord.C(2, 2, 0)))
	assert.False(t, g.CanUndo())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "discarding in-memory edits")
}

func TestSheet_NoFile(t *testing.T) {
	ctx, _ := testutil.Context(t)
	sheet := NewSheet(testutil.NewGrid(t, coord.Shape{Rows: 1, Cols: 1, Tabs: 1}, nil), "")

	require.ErrorIs(t, sheet.Save(ctx), errNoSheetFile)
	require.ErrorIs(t, sheet.Reload(ctx), errNoSheetFile)
	require.ErrorIs(t, sheet.Load(ctx), errNoSheetFile)
}
