// Package fsindex models the minimal slice of the working-tree index that
// the FSM integration core needs: an ordered sequence of entries with a
// handful of status flags. The index's real binary codec, and everything
// about it unrelated to FSM bookkeeping, lives outside this core.
package fsindex

// EntryFlag is a bitset of per-entry status markers the FSM core reads
// and mutates. Only the bits FSM cares about are modeled; the real index
// entry carries many more.
type EntryFlag uint32

const (
	// FlagClean means "the oracle last said this path is unchanged since
	// last_token." This is the bit the refresh engine and path
	// invalidator clear.
	FlagClean EntryFlag = 1 << iota

	// FlagRemoved marks an entry pending deletion. Removed entries are
	// skipped when walking the index and are never counted towards
	// bitmap positions.
	FlagRemoved

	// FlagSubmodule marks an entry that is a submodule gitlink rather
	// than a regular file; submodules are excluded from the speculative
	// CLEAN marking performed by Reconcile.
	FlagSubmodule
)

// Entry is one (ordered-by-name) record in the index.
type Entry struct {
	Name  string
	Mode  uint32
	Flags EntryFlag
}

// IsClean reports whether the CLEAN bit is set.
func (e *Entry) IsClean() bool { return e.Flags&FlagClean != 0 }

// SetClean sets the CLEAN bit.
func (e *Entry) SetClean() { e.Flags |= FlagClean }

// ClearClean clears the CLEAN bit and reports whether it was previously
// set (callers use this to detect "did anything actually change").
func (e *Entry) ClearClean() bool {
	was := e.IsClean()
	e.Flags &^= FlagClean
	return was
}

// IsRemoved reports whether the entry is pending deletion.
func (e *Entry) IsRemoved() bool { return e.Flags&FlagRemoved != 0 }

// IsSubmodule reports whether the entry is a gitlink into a submodule.
func (e *Entry) IsSubmodule() bool { return e.Flags&FlagSubmodule != 0 }
