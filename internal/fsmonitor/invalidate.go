package fsmonitor

import (
	"strings"

	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

// Invalidator maps one reported path to the set of index entries it
// touches, per spec.md §4.3. Its only state is the filesystem's case
// sensitivity, which decides whether the case-insensitive fallback runs;
// the recursion depth is passed along explicitly and capped by
// maxIcaseDepth.
type Invalidator struct {
	caseInsensitive bool
}

// NewInvalidator returns an Invalidator configured for the given
// filesystem case sensitivity.
func NewInvalidator(caseInsensitiveFS bool) *Invalidator {
	return &Invalidator{caseInsensitive: caseInsensitiveFS}
}

// InvalidatePath clears the CLEAN bit of every entry the observed path
// maps to and invalidates the untracked cache accordingly, returning the
// number of entries cleared. A return of 0 means nothing matched.
func (inv *Invalidator) InvalidatePath(ix *fsindex.Index, path string) int {
	return inv.invalidate(ix, path, 0)
}

// maxIcaseDepth bounds the mutual recursion between the slash and
// non-slash cases to one canonicalization, per spec.md §9's redesign
// note ("bound recursion depth at 2").
const maxIcaseDepth = 2

func (inv *Invalidator) invalidate(ix *fsindex.Index, path string, depth int) int {
	if depth >= maxIcaseDepth {
		return 0
	}
	if strings.HasSuffix(path, "/") {
		return inv.invalidateDir(ix, path, depth)
	}
	return inv.invalidateUnqualified(ix, path, depth)
}

// invalidateDir handles spec.md §4.3 case 1: an explicit directory path
// (trailing slash).
func (inv *Invalidator) invalidateDir(ix *fsindex.Index, path string, depth int) int {
	stripped := strings.TrimSuffix(path, "/")
	invalidateUntracked(ix, stripped)

	count := inv.walkPrefix(ix, path)
	if count > 0 {
		return count
	}

	if !inv.caseInsensitive {
		return 0
	}

	// name_hash_lookup(path) first: matches sparse-directory entries
	// case-insensitively.
	if canonical, ok := ix.LookupFileCaseInsensitive(path); ok {
		if clearEntryAt(ix, ix.PositionOf(canonical)) {
			invalidateUntracked(ix, strings.TrimSuffix(canonical, "/"))
			return 1
		}
	}

	canonicalDir, ok := ix.LookupDirCaseInsensitive(stripped)
	if !ok || canonicalDir == stripped {
		// No case correction available, or the lookup handed back the
		// same spelling we already tried: report 0 rather than recurse
		// forever (spec.md §4.3 rationale).
		return 0
	}

	return inv.invalidate(ix, canonicalDir+"/", depth+1)
}

// invalidateUnqualified handles spec.md §4.3 case 2: a path with no
// trailing slash, which may name a file or an ambiguous directory.
func (inv *Invalidator) invalidateUnqualified(ix *fsindex.Index, path string, depth int) int {
	invalidateUntracked(ix, path)

	p := ix.PositionOf(path)
	if p >= 0 {
		ix.At(p).ClearClean()
		return 1
	}

	count := inv.walkPrefix(ix, path+"/")
	if count > 0 {
		return count
	}

	if !inv.caseInsensitive {
		return 0
	}

	if canonical, ok := ix.LookupFileCaseInsensitive(path); ok {
		cp := ix.PositionOf(canonical)
		if clearEntryAt(ix, cp) {
			invalidateUntracked(ix, canonical)
			return 1
		}
	}

	canonicalDir, ok := ix.LookupDirCaseInsensitive(path)
	if !ok {
		return 0
	}

	return inv.invalidate(ix, canonicalDir+"/", depth+1)
}

// walkPrefix implements spec.md §4.3 step 1(b)-(c): starting at
// position_of(dirPathWithSlash)'s insertion point, clear every entry
// whose name has dirPathWithSlash as a bytewise prefix, stopping at the
// first non-matching entry.
func (inv *Invalidator) walkPrefix(ix *fsindex.Index, dirPathWithSlash string) int {
	p := ix.PositionOf(dirPathWithSlash)
	if p < 0 {
		p = -p - 1
	}

	count := 0
	for i := p; i < ix.Count(); i++ {
		e := ix.At(i)
		if !fsindex.HasPrefix(e.Name, dirPathWithSlash) {
			break
		}
		// Every matching entry counts towards the returned total,
		// whether or not its CLEAN bit was actually set beforehand —
		// the count gates case-insensitive fallback (spec.md §8
		// property 6), not the number of bits that actually flipped.
		e.ClearClean()
		count++
	}
	return count
}

func clearEntryAt(ix *fsindex.Index, pos int) bool {
	if pos < 0 || pos >= ix.Count() {
		return false
	}
	ix.At(pos).ClearClean()
	return true
}

func invalidateUntracked(ix *fsindex.Index, path string) {
	if ix.Untracked != nil {
		ix.Untracked.InvalidatePath(path)
	}
}
