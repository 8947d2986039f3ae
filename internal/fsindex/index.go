package fsindex

import (
	"sort"
	"strings"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
)

// ChangeFlag is a bitset of pending on-disk-rewrite reasons for the index
// as a whole. Only the one FSM cares about is modeled here.
type ChangeFlag uint32

const (
	// FSMChanged means the FSM extension must be rewritten on save: the
	// persisted token and/or dirty bitmap are stale relative to memory.
	FSMChanged ChangeFlag = 1 << iota
)

// Index is an ordered, bytewise-by-name sequence of entries, together
// with the case-insensitive lookup tables the surrounding index
// subsystem maintains for us.
type Index struct {
	Entries []*Entry
	Changed ChangeFlag

	// NameHash is nil on case-sensitive filesystems; the path
	// invalidator only consults it when configured for case-insensitive
	// lookups.
	NameHash interfaces.NameHashIndex

	Untracked interfaces.UntrackedCache

	FSM FsmState
}

// Count returns the number of entries, including REMOVED ones.
func (ix *Index) Count() int { return len(ix.Entries) }

// At returns the entry at position i.
func (ix *Index) At(i int) *Entry { return ix.Entries[i] }

// PositionOf returns the exact position of name if present (>= 0), or a
// negative insertion hint -(i+1) where i is where name would sort.
func (ix *Index) PositionOf(name string) int {
	i := sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Name >= name
	})
	if i < len(ix.Entries) && ix.Entries[i].Name == name {
		return i
	}
	return -(i + 1)
}

// LookupFileCaseInsensitive delegates to the configured NameHash table,
// if any.
func (ix *Index) LookupFileCaseInsensitive(path string) (string, bool) {
	if ix.NameHash == nil {
		return "", false
	}
	return ix.NameHash.LookupFileCaseInsensitive(path)
}

// LookupDirCaseInsensitive delegates to the configured NameHash table, if
// any.
func (ix *Index) LookupDirCaseInsensitive(dirPath string) (string, bool) {
	if ix.NameHash == nil {
		return "", false
	}
	return ix.NameHash.LookupDirCaseInsensitive(dirPath)
}

// HasPrefix reports whether name starts, bytewise, with prefix. Kept as a
// named helper because spec.md is explicit that this comparison is
// bytewise even on the case-insensitive fallback path.
func HasPrefix(name, prefix string) bool {
	return strings.HasPrefix(name, prefix)
}

// SetFSMChanged sets the FSM_CHANGED bit.
func (ix *Index) SetFSMChanged() { ix.Changed |= FSMChanged }

// ClearFSMChanged clears the FSM_CHANGED bit.
func (ix *Index) ClearFSMChanged() { ix.Changed &^= FSMChanged }

// IsFSMChanged reports whether the FSM_CHANGED bit is set.
func (ix *Index) IsFSMChanged() bool { return ix.Changed&FSMChanged != 0 }

// FsmState is the FSM-specific state attached to an Index, mirroring
// spec.md §3's FsmState entity.
type FsmState struct {
	// LastToken is the opaque oracle token representing "state of the
	// world" as of the last successful refresh. A nil token means FSM is
	// inactive.
	LastToken *string

	// DirtyBitmap carries positions known dirty from the last load,
	// consumed by Reconcile (or by the first Refresh).
	DirtyBitmap *Bitmap

	// HasRunOnce guards against more than one refresh per process
	// lifetime for a given index.
	HasRunOnce bool
}
