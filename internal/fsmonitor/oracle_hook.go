package fsmonitor

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"time"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
)

// hookOracle implements interfaces.Oracle by spawning a child process per
// query, per spec.md §4.2 and §6.
type hookOracle struct {
	path string

	// workdir is the worktree root the hook must be invoked from.
	// Defaults to "." when unset, matching the current process's
	// working directory.
	workdir string

	// versionPreference is 0 ("no preference"), 1, or 2.
	versionPreference int
}

func (o *hookOracle) Query(ctx context.Context, token string) interfaces.QueryOutcome {
	pref := o.versionPreference
	if pref == 0 {
		// No preference: start with V2, fall back to V1 transparently on
		// failure, per spec.md §4.2.
		if outcome, ok := o.tryVersion(ctx, 2, token); ok {
			return outcome
		}
		if outcome, ok := o.tryVersion(ctx, 1, token); ok {
			return outcome
		}
		return interfaces.Failed()
	}

	if outcome, ok := o.tryVersion(ctx, pref, token); ok {
		return outcome
	}
	return interfaces.Failed()
}

func (o *hookOracle) tryVersion(ctx context.Context, version int, token string) (interfaces.QueryOutcome, bool) {
	// V1 carries no new token in its response; one is synthesized here
	// from a clock reading taken before the query, per spec.md §4.2.
	preQueryClock := strconv.FormatInt(time.Now().UnixNano(), 10)

	cmd := exec.CommandContext(ctx, o.path, strconv.Itoa(version), token)
	if o.workdir != "" {
		cmd.Dir = o.workdir
	}

	var stdout bytes.Buffer
	stdout.Grow(1024) // small initial buffer hint, per spec.md §4.2
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return interfaces.QueryOutcome{}, false
	}

	switch version {
	case 1:
		body := stdout.Bytes()
		if len(body) > 0 && body[0] == '/' {
			return interfaces.Trivial(preQueryClock), true
		}
		return interfaces.Paths(preQueryClock, splitNulDelimited(body)), true
	case 2:
		outcome := parseIPCResponse(stdout.Bytes())
		if outcome.IsFailed() {
			return outcome, false
		}
		return outcome, true
	default:
		return interfaces.QueryOutcome{}, false
	}
}
