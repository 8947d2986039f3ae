package fsmonitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

// stubNameHash implements interfaces.NameHashIndex with a fixed case
// mapping, for exercising the case-insensitive fallback path.
type stubNameHash struct {
	files map[string]string
	dirs  map[string]string
}

func (s *stubNameHash) LookupFileCaseInsensitive(path string) (string, bool) {
	v, ok := s.files[path]
	return v, ok
}

func (s *stubNameHash) LookupDirCaseInsensitive(dirPath string) (string, bool) {
	v, ok := s.dirs[dirPath]
	return v, ok
}

func allClean(names ...string) *fsindex.Index {
	entries := make([]*fsindex.Entry, len(names))
	for i, n := range names {
		e := &fsindex.Entry{Name: n}
		e.SetClean()
		entries[i] = e
	}
	return &fsindex.Index{Entries: entries}
}

func TestInvalidator_ExactFileMatch(t *testing.T) {
	ix := allClean("a.txt", "b.txt")
	inv := NewInvalidator(false)

	n := inv.InvalidatePath(ix, "a.txt")
	assert.Equal(t, 1, n)
	assert.False(t, ix.Entries[0].IsClean())
	assert.True(t, ix.Entries[1].IsClean())
}

func TestInvalidator_DirectoryPrefix(t *testing.T) {
	ix := allClean("dir/a.txt", "dir/b.txt", "other.txt")
	inv := NewInvalidator(false)

	n := inv.InvalidatePath(ix, "dir/")
	assert.Equal(t, 2, n)
	assert.False(t, ix.Entries[0].IsClean())
	assert.False(t, ix.Entries[1].IsClean())
	assert.True(t, ix.Entries[2].IsClean())
}

func TestInvalidator_UnqualifiedDirectoryPrefix(t *testing.T) {
	ix := allClean("dir/a.txt", "dir/b.txt", "other.txt")
	inv := NewInvalidator(false)

	// No trailing slash, no exact match: falls back to prefix "dir/".
	n := inv.InvalidatePath(ix, "dir")
	assert.Equal(t, 2, n)
}

func TestInvalidator_NoMatchReturnsZero(t *testing.T) {
	ix := allClean("a.txt")
	inv := NewInvalidator(false)

	n := inv.InvalidatePath(ix, "missing.txt")
	assert.Equal(t, 0, n)
	assert.True(t, ix.Entries[0].IsClean())
}

func TestInvalidator_CaseInsensitiveFileFallback(t *testing.T) {
	ix := allClean("README.md")
	ix.NameHash = &stubNameHash{files: map[string]string{"readme.md": "README.md"}}
	inv := NewInvalidator(true)

	n := inv.InvalidatePath(ix, "readme.md")
	assert.Equal(t, 1, n)
	assert.False(t, ix.Entries[0].IsClean())
}

func TestInvalidator_CaseInsensitiveDisabledSkipsFallback(t *testing.T) {
	ix := allClean("README.md")
	ix.NameHash = &stubNameHash{files: map[string]string{"readme.md": "README.md"}}
	inv := NewInvalidator(false) // case-insensitive fallback disabled

	n := inv.InvalidatePath(ix, "readme.md")
	assert.Equal(t, 0, n)
	assert.True(t, ix.Entries[0].IsClean())
}

func TestInvalidator_CaseInsensitiveDirFallbackBoundsRecursion(t *testing.T) {
	ix := allClean("Dir/a.txt")
	// Deliberately map to itself: the lookup offers no case correction,
	// so the invalidator must report 0 instead of recursing on "dir/".
	ix.NameHash = &stubNameHash{dirs: map[string]string{"dir": "dir"}}
	inv := NewInvalidator(true)

	n := inv.InvalidatePath(ix, "dir/")
	assert.Equal(t, 0, n)
}

func TestInvalidator_UntrackedCacheNotified(t *testing.T) {
	ix := allClean("a.txt")
	var invalidated []string
	ix.Untracked = untrackedRecorder{&invalidated}
	inv := NewInvalidator(false)

	inv.InvalidatePath(ix, "a.txt")
	assert.Equal(t, []string{"a.txt"}, invalidated)
}

type untrackedRecorder struct {
	paths *[]string
}

func (u untrackedRecorder) InvalidatePath(path string) { *u.paths = append(*u.paths, path) }
func (u untrackedRecorder) SetUseFSM(bool)             {}
