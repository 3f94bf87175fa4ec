package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/sparsegrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// SetupAppTest creates a new app instance for system testing. Logging is
// forced to debug and captured in the returned buffer.
func SetupAppTest(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	valid, err := NewConfig(cfg)
	require.NoError(t, err)

	testApp, err := NewApp(logBuffer, valid)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("SPARSEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
