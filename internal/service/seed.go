package service

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/fsmonitor/fsmcore/internal/fsindex"
)

// seedFromDisk populates a freshly created Service's index by walking the
// worktree once, the way "git add -A" would populate a brand new index
// before FSM has ever run. This repository does not implement the real
// index binary format (out of scope); walking the tree is the minimal
// stand-in that gives the CLI commands real entries to enable, refresh
// and list against.
func (s *Service) seedFromDisk() error {
	var names []string

	err := filepath.WalkDir(s.worktreeRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".fsmonitor" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(s.worktreeRoot, path)
		if relErr != nil {
			return relErr
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(names)
	entries := make([]*fsindex.Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, &fsindex.Entry{Name: n, Mode: 0100644})
	}
	s.index.Entries = entries
	return nil
}
