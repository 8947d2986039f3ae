package fsmonitor

import (
	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

// ForceThreshold is the constant named in spec.md §4.4: once a refresh
// applies more paths than this, the index is force-marked changed so the
// (shorter) new token gets persisted, rather than risking the same huge
// delta being replayed every invocation.
const ForceThreshold = 100

// Engine drives one end-to-end refresh cycle (C4).
type Engine struct {
	oracle interfaces.Oracle
	inv    *Invalidator
	diag   interfaces.DiagnosticsCtx
	cfg    Config
}

// NewEngine builds a refresh Engine from its collaborators.
func NewEngine(cfg Config, oracle interfaces.Oracle, diag interfaces.DiagnosticsCtx) *Engine {
	return &Engine{
		oracle: oracle,
		inv:    NewInvalidator(cfg.CaseInsensitiveFS),
		diag:   diag,
		cfg:    cfg,
	}
}

// Refresh drives one refresh cycle against ix, per spec.md §4.4. It is a
// no-op if FSM is disabled or has already run once for this index in
// this process.
func (e *Engine) Refresh(ix *fsindex.Index) {
	if e.cfg.Compat != CompatReasonNone {
		e.diag.WarnOnce("compat_reason:"+string(e.cfg.Compat),
			"fsmonitor unavailable: %s", e.cfg.Compat)
	}

	if !e.cfg.Enabled() || ix.FSM.HasRunOnce {
		return
	}
	ix.FSM.HasRunOnce = true
	ix.FSM.DirtyBitmap = nil

	token := ""
	if ix.FSM.LastToken != nil {
		token = *ix.FSM.LastToken
	}

	outcome := e.oracle.Query(queryContext(), token)
	if outcome.IsFailed() {
		e.diag.WarnOnce("oracle_unavailable",
			"fsmonitor oracle unavailable; treating this refresh as fully invalidating")
		e.invalidateEverything(ix)
		return
	}

	if outcome.IsTrivial() {
		e.installToken(ix, outcome.NewToken)
		e.invalidateEverything(ix)
		return
	}

	// V2 protocols may hand back an empty token even on an otherwise
	// well-formed response; spec.md §4.4 says to downgrade that case to
	// "query failed."
	if outcome.NewToken == "" {
		e.diag.WarnOnce("oracle_unavailable",
			"fsmonitor oracle returned an empty token; treating this refresh as fully invalidating")
		e.invalidateEverything(ix)
		return
	}

	// Reported paths that match nothing are silently ignored (spec.md
	// §7): they may name ignored files or a stale notification.
	applied := 0
	for _, p := range outcome.Paths {
		if p == "" {
			continue
		}
		if e.inv.InvalidatePath(ix, p) > 0 {
			applied++
		}
	}

	if applied > 0 && ix.Untracked != nil {
		ix.Untracked.SetUseFSM(true)
	}

	if applied > ForceThreshold {
		ix.SetFSMChanged()
	}

	e.installToken(ix, outcome.NewToken)
}

// invalidateEverything clears every entry's CLEAN bit (the "trivial
// response" / "oracle failed" path of spec.md §4.4 step 4), setting
// FSM_CHANGED if any bit actually flipped and disabling the untracked
// cache's fast path.
func (e *Engine) invalidateEverything(ix *fsindex.Index) {
	changed := false
	for _, en := range ix.Entries {
		if en.ClearClean() {
			changed = true
		}
	}
	if changed {
		ix.SetFSMChanged()
	}
	if ix.Untracked != nil {
		ix.Untracked.SetUseFSM(false)
	}
}

func (e *Engine) installToken(ix *fsindex.Index, newToken string) {
	t := newToken
	ix.FSM.LastToken = &t
}
