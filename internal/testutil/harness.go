// Package testutil holds helpers shared by the package tests: a logger-carrying
// context whose output is kept in a buffer, grid builders and temporary sheet
// files.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/stretchr/testify/require"
)

// logsEnv enables dumping captured logs for every test.
const logsEnv = "SPARSEGRID_TEST_LOGS"

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug logger that writes to the
// returned buffer. The buffer is printed when the test ends if
// SPARSEGRID_TEST_LOGS=true.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Cleanup(func() {
		if os.Getenv(logsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// NewGrid creates a grid of the given shape and writes cells into it. The
// writes are not undoable.
func NewGrid(t *testing.T, shape coord.Shape, cells map[coord.Coordinate]string, opts ...grid.Option) *grid.Grid {
	t.Helper()
	g, err := grid.New(append([]grid.Option{grid.WithShape(shape)}, opts...)...)
	require.NoError(t, err)

	ctx := context.Background()
	for c, text := range cells {
		require.NoError(t, g.Write(ctx, c, text))
	}
	g.ResetHistory()
	return g
}

// WriteFiles writes files, keyed by relative path, below a fresh temporary
// directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}
