package testfixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedDaemon_QueryReportsCreatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0600))

	d, err := NewSimulatedDaemon(dir)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	defer d.Stop()

	newFile := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(newFile, []byte("hello"), 0600))

	// fsnotify delivery is asynchronous; poll briefly rather than sleeping
	// a fixed, possibly-flaky duration.
	var outcome = pollForPaths(t, d, "")
	assert.Contains(t, outcome.Paths, "new.txt")
}

func TestSimulatedDaemon_UnknownTokenIsTrivial(t *testing.T) {
	dir := t.TempDir()
	d, err := NewSimulatedDaemon(dir)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	defer d.Stop()

	outcome := d.Query(context.Background(), "not-a-real-token")
	assert.True(t, outcome.IsTrivial())
	assert.NotEmpty(t, outcome.NewToken)
}

func pollForPaths(t *testing.T, d *SimulatedDaemon, token string) queryOutcomeSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		outcome := d.Query(context.Background(), token)
		if len(outcome.Paths) > 0 {
			return queryOutcomeSnapshot{Paths: outcome.Paths, NewToken: outcome.NewToken}
		}
		token = outcome.NewToken
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for simulated daemon to report the new file")
	return queryOutcomeSnapshot{}
}

type queryOutcomeSnapshot struct {
	Paths    []string
	NewToken string
}
