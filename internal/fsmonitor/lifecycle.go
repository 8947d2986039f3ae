package fsmonitor

import (
	"strconv"
	"time"

	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

// Lifecycle implements C5: enable, disable, reconcile and the
// config-change wrapper Tweak (supplemented from original_source's
// tweak_fsmonitor per SPEC_FULL.md §4).
type Lifecycle struct {
	cfg    Config
	engine *Engine
}

// NewLifecycle builds a Lifecycle from its configuration and the refresh
// engine it drives after enabling or reconciling.
func NewLifecycle(cfg Config, engine *Engine) *Lifecycle {
	return &Lifecycle{cfg: cfg, engine: engine}
}

// currentClockToken formats a high-resolution clock reading as decimal
// nanoseconds, per spec.md §3's lifecycle note on seeding last_token.
func currentClockToken() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// Enable turns FSM on for ix. It is a no-op if already enabled. Returns
// whether it newly set FSM_CHANGED (supplemented caller-visible signal,
// SPEC_FULL.md §4).
func (l *Lifecycle) Enable(ix *fsindex.Index) bool {
	if ix.FSM.LastToken != nil {
		return false
	}

	ix.SetFSMChanged()
	tok := currentClockToken()
	ix.FSM.LastToken = &tok

	for _, e := range ix.Entries {
		e.ClearClean()
	}

	if ix.Untracked != nil {
		ix.Untracked.SetUseFSM(true)
	}

	l.engine.Refresh(ix)
	return true
}

// Disable turns FSM off for ix. It is a no-op if already disabled.
// Returns whether it newly set FSM_CHANGED.
func (l *Lifecycle) Disable(ix *fsindex.Index) bool {
	if ix.FSM.LastToken == nil {
		return false
	}
	ix.SetFSMChanged()
	ix.FSM.LastToken = nil
	return true
}

// Reconcile is called after loading an index from disk, per spec.md
// §4.5. If a dirty bitmap was loaded and FSM is configured on, it
// speculatively marks all non-submodule entries CLEAN, clears CLEAN for
// each dirty bit at its compacted position and refreshes; a loaded bitmap
// is freed either way. Finally it calls
// Enable or Disable depending on configuration.
func (l *Lifecycle) Reconcile(ix *fsindex.Index) {
	if ix.FSM.DirtyBitmap != nil {
		if l.cfg.Enabled() {
			for _, e := range ix.Entries {
				if !e.IsSubmodule() {
					e.SetClean()
				}
			}
			ix.FSM.DirtyBitmap.ForEachSet(func(compactedPos int) {
				clearCompactedPosition(ix, compactedPos)
			})
			l.engine.Refresh(ix)
		}
		ix.FSM.DirtyBitmap = nil
	}

	if l.cfg.Enabled() {
		l.Enable(ix)
	} else {
		l.Disable(ix)
	}
}

// Tweak re-derives enabled/disabled state from updated configuration
// without requiring a fresh index load, covering the "user flips
// fsmonitor.mode mid-session" path the original's tweak_fsmonitor
// handles and spec.md's load-time-only reconcile does not by itself
// (SPEC_FULL.md §4).
func (l *Lifecycle) Tweak(ix *fsindex.Index, cfg Config) {
	l.cfg = cfg
	l.engine.cfg = cfg
	l.engine.inv = NewInvalidator(cfg.CaseInsensitiveFS)

	if cfg.Enabled() {
		l.Enable(ix)
	} else {
		l.Disable(ix)
	}
}

// clearCompactedPosition undoes fill_bitmap's compaction (spec.md §4.1):
// compacted position i in the bitmap corresponds to the i-th non-REMOVED
// entry in the live index.
func clearCompactedPosition(ix *fsindex.Index, compactedPos int) {
	seen := -1
	for _, e := range ix.Entries {
		if e.IsRemoved() {
			continue
		}
		seen++
		if seen == compactedPos {
			e.ClearClean()
			return
		}
	}
}
