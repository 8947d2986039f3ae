package fsmonitor

import (
	"context"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
)

// sentinelToken is substituted for an empty token when querying the IPC
// backend, per spec.md §4.2.
const sentinelToken = "builtin:fake"

// NewOracle constructs the Oracle backend selected by cfg.Mode. It
// returns nil when FSM is disabled; callers must check Config.Enabled
// before dereferencing.
func NewOracle(cfg Config, diag interfaces.DiagnosticsCtx) interfaces.Oracle {
	switch cfg.Mode {
	case ModeIPC:
		return &ipcOracle{socketToken: sentinelToken}
	case ModeHook:
		pref, invalid := NormalizedHookVersionPreference(cfg.HookVersionPreference)
		if invalid {
			diag.WarnOnce("hook_version_preference",
				"fsmonitor.hook_version_preference value %d out of range, ignoring", cfg.HookVersionPreference)
		}
		return &hookOracle{path: cfg.HookPath, versionPreference: pref}
	default:
		return nil
	}
}

// queryContext is a convenience no-op context constructor kept so every
// call site threads a context even though this in-core layer never
// itself enforces cancellation (spec.md §5: "not cancellable from inside
// the core; callers enforce timeouts at the oracle layer").
func queryContext() context.Context { return context.Background() }
