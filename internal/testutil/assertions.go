package testutil

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Contents returns the text of every stored cell of g.
func Contents(g *grid.Grid) map[coord.Coordinate]string {
	out := make(map[coord.Coordinate]string, g.Len())
	for _, c := range g.Keys() {
		out[c] = g.Text(c)
	}
	return out
}

// AssertContents fails the test unless g stores exactly expected.
func AssertContents(t *testing.T, g *grid.Grid, expected map[coord.Coordinate]string) {
	t.Helper()
	if diff := cmp.Diff(expected, Contents(g), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("grid contents mismatch (-want +got):\n%s", diff)
	}
}

// RequireValue reads c and requires it to equal expected.
func RequireValue(t *testing.T, ctx context.Context, g *grid.Grid, c coord.Coordinate, expected cty.Value) {
	t.Helper()
	got, err := g.Read(ctx, c)
	require.NoError(t, err, "reading %s", c)
	require.True(t, got.Equals(expected).True(), "cell %s: got %#v, want %#v", c, got, expected)
}
