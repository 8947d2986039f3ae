package fsmonitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

func TestLifecycle_EnableSeedsTokenAndDirtiesEverything(t *testing.T) {
	ix := allClean("a.txt", "b.txt")
	oracle := &stubOracle{outcome: interfaces.Paths("tok", nil)}
	cfg := Config{Mode: ModeIPC}
	engine := NewEngine(cfg, oracle, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	changed := lc.Enable(ix)

	assert.True(t, changed)
	require.NotNil(t, ix.FSM.LastToken)
	assert.Equal(t, 1, oracle.calls) // Enable triggers an immediate refresh
	for _, e := range ix.Entries {
		assert.False(t, e.IsClean())
	}
}

func TestLifecycle_EnableIsNoOpWhenAlreadyEnabled(t *testing.T) {
	ix := allClean("a.txt")
	tok := "already-enabled"
	ix.FSM.LastToken = &tok

	oracle := &stubOracle{outcome: interfaces.Trivial("tok2")}
	cfg := Config{Mode: ModeIPC}
	engine := NewEngine(cfg, oracle, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	changed := lc.Enable(ix)

	assert.False(t, changed)
	assert.Equal(t, 0, oracle.calls)
	assert.Equal(t, "already-enabled", *ix.FSM.LastToken)
}

func TestLifecycle_DisableClearsToken(t *testing.T) {
	ix := allClean("a.txt")
	tok := "tok"
	ix.FSM.LastToken = &tok

	cfg := Config{Mode: ModeDisabled}
	engine := NewEngine(cfg, nil, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	changed := lc.Disable(ix)

	assert.True(t, changed)
	assert.Nil(t, ix.FSM.LastToken)
}

func TestLifecycle_DisableIsNoOpWhenAlreadyDisabled(t *testing.T) {
	ix := allClean("a.txt")
	cfg := Config{Mode: ModeDisabled}
	engine := NewEngine(cfg, nil, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	changed := lc.Disable(ix)
	assert.False(t, changed)
}

func TestLifecycle_ReconcileClearsDirtyBitmapBits(t *testing.T) {
	ix := allClean("a.txt", "b.txt", "c.txt")

	bitmap := fsindex.NewBitmap()
	bitmap.Set(1) // marks the compacted position 1 ("b.txt") dirty
	ix.FSM.DirtyBitmap = bitmap

	oracle := &stubOracle{outcome: interfaces.Paths("tok", nil)}
	cfg := Config{Mode: ModeIPC}
	engine := NewEngine(cfg, oracle, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	lc.Reconcile(ix)

	assert.Nil(t, ix.FSM.DirtyBitmap)
	assert.False(t, ix.Entries[1].IsClean())
	assert.True(t, ix.Entries[0].IsClean())
	assert.True(t, ix.Entries[2].IsClean())
	// Reconcile finishes by calling Enable/Disable based on config.
	require.NotNil(t, ix.FSM.LastToken)
}

func TestLifecycle_DisableThenEnableInOneProcessDoesNotRequeryOracle(t *testing.T) {
	ix := allClean("a.txt", "b.txt")
	oracle := &stubOracle{outcome: interfaces.Paths("tok", nil)}
	cfg := Config{Mode: ModeIPC}
	engine := NewEngine(cfg, oracle, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	lc.Enable(ix)
	require.Equal(t, 1, oracle.calls)

	lc.Disable(ix)
	lc.Enable(ix)

	// has_run_once is scoped to the process, not to the enabled/disabled
	// session, so re-enabling within the same process must not trigger a
	// second oracle query.
	assert.Equal(t, 1, oracle.calls)
}

func TestLifecycle_TweakSwitchesToDisabled(t *testing.T) {
	ix := allClean("a.txt")
	tok := "tok"
	ix.FSM.LastToken = &tok

	oracle := &stubOracle{outcome: interfaces.Trivial("tok2")}
	cfg := Config{Mode: ModeIPC}
	engine := NewEngine(cfg, oracle, NewDiagnostics())
	lc := NewLifecycle(cfg, engine)

	lc.Tweak(ix, Config{Mode: ModeDisabled})

	assert.Nil(t, ix.FSM.LastToken)
}
