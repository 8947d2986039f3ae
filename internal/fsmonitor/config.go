package fsmonitor

// Mode selects which oracle backend, if any, the refresh engine drives.
type Mode string

const (
	// ModeDisabled means FSM integration is off entirely.
	ModeDisabled Mode = "disabled"
	// ModeHook means the oracle is a one-shot hook process.
	ModeHook Mode = "hook"
	// ModeIPC means the oracle is a long-lived daemon reached over IPC.
	ModeIPC Mode = "ipc"
)

// CompatReason is set by the surrounding system to explain why FSM is
// unavailable in this worktree (e.g. a bare repository, a filesystem
// fsmonitor cannot watch). A non-empty reason surfaces exactly one
// warning per process via DiagnosticsCtx.
type CompatReason string

const (
	CompatReasonNone           CompatReason = ""
	CompatReasonBareRepository CompatReason = "bare_repository"
	CompatReasonRemoteFS       CompatReason = "remote_filesystem"
)

// Config is the configuration surface spec.md §6 enumerates.
type Config struct {
	Mode Mode

	// HookPath is required when Mode == ModeHook.
	HookPath string

	// HookVersionPreference recognizes {1, 2}; any other value warns and
	// is treated as "no preference."
	HookVersionPreference int

	// CaseInsensitiveFS is consulted by the path invalidator to decide
	// whether to attempt the name-hash fallback.
	CaseInsensitiveFS bool

	// Compat, when non-empty, disables FSM and emits one warning.
	Compat CompatReason
}

// Enabled reports whether Mode requests an active oracle and no
// compatibility reason vetoes it.
func (c Config) Enabled() bool {
	return c.Mode != ModeDisabled && c.Compat == CompatReasonNone
}

// NormalizedHookVersionPreference returns pref if it is 1 or 2, else 0
// ("no preference"), and whether the input was invalid (for warning
// purposes).
func NormalizedHookVersionPreference(pref int) (normalized int, invalid bool) {
	if pref == 1 || pref == 2 {
		return pref, false
	}
	if pref == 0 {
		return 0, false
	}
	return 0, true
}
