package fsindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sortedIndex(names ...string) *Index {
	entries := make([]*Entry, len(names))
	for i, n := range names {
		entries[i] = &Entry{Name: n}
	}
	return &Index{Entries: entries}
}

func TestIndex_PositionOf_ExactMatch(t *testing.T) {
	ix := sortedIndex("a.txt", "b.txt", "c.txt")
	assert.Equal(t, 1, ix.PositionOf("b.txt"))
}

func TestIndex_PositionOf_InsertionHint(t *testing.T) {
	ix := sortedIndex("a.txt", "c.txt")
	pos := ix.PositionOf("b.txt")
	assert.Less(t, pos, 0)
	assert.Equal(t, 1, -pos-1)
}

func TestIndex_FSMChangedFlag(t *testing.T) {
	ix := &Index{}
	assert.False(t, ix.IsFSMChanged())

	ix.SetFSMChanged()
	assert.True(t, ix.IsFSMChanged())

	ix.ClearFSMChanged()
	assert.False(t, ix.IsFSMChanged())
}

func TestEntry_ClearCleanReportsPriorState(t *testing.T) {
	e := &Entry{Name: "x"}
	assert.False(t, e.ClearClean()) // was never set

	e.SetClean()
	assert.True(t, e.ClearClean()) // was set, now cleared
	assert.False(t, e.IsClean())
}

func TestEntry_RemovedAndSubmoduleFlags(t *testing.T) {
	e := &Entry{Flags: FlagRemoved | FlagSubmodule}
	assert.True(t, e.IsRemoved())
	assert.True(t, e.IsSubmodule())
	assert.False(t, e.IsClean())
}
