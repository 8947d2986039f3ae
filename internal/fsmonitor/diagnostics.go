package fsmonitor

import (
	"fmt"
	"sync"

	"github.com/fsmonitor/fsmcore/pkg/logger"
)

// Diagnostics implements interfaces.DiagnosticsCtx. The original
// implementation keeps a single process-global warn_once bit; spec.md §9
// flags this as needing re-architecture so tests can run many refreshes
// in one process without one test's warning suppressing another's. We
// scope the "seen" set to a Diagnostics value instead of a package
// global, and callers attach one per Index (or per test).
type Diagnostics struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewDiagnostics returns an empty Diagnostics.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{seen: make(map[string]bool)}
}

// WarnOnce logs the formatted message the first time key is seen on this
// Diagnostics value, and is a silent no-op on every subsequent call with
// the same key.
func (d *Diagnostics) WarnOnce(key string, format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	logger.WithDiagnosticKey(key).Warn(fmt.Sprintf(format, args...))
}
