package interfaces

// NameHashIndex is the auxiliary case-insensitive lookup table the
// surrounding index subsystem maintains. The path invalidator consults it
// only on the case-insensitive fallback path, after an exact, case-
// sensitive lookup has already come back empty.
type NameHashIndex interface {
	// LookupFileCaseInsensitive finds a tracked file entry whose name
	// matches path under case folding, returning its canonical
	// (on-disk-cased) name and whether a match was found.
	LookupFileCaseInsensitive(path string) (canonicalName string, ok bool)

	// LookupDirCaseInsensitive finds a sparse-directory entry whose name
	// (without any trailing slash) matches dirPath under case folding,
	// returning the canonical directory name.
	LookupDirCaseInsensitive(dirPath string) (canonicalName string, ok bool)
}
