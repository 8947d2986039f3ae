// Package testfixture provides an in-process stand-in for the external
// change-notification oracle, driven by real fsnotify events. It exists
// purely so integration tests can exercise the refresh engine end-to-end
// against a real directory tree without standing up an actual daemon or
// hook script. Production code never imports this package: watching the
// filesystem ourselves is out of scope for the FSM core (spec.md §1).
package testfixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
	"github.com/fsmonitor/fsmcore/pkg/logger"
	"go.uber.org/zap"
)

// SimulatedDaemon watches a directory tree with fsnotify and buckets the
// paths it sees by the monotonically increasing token that was current
// when each change arrived, so that Query(token) can return "everything
// that changed since token" the way a real fsmonitor daemon would.
type SimulatedDaemon struct {
	root      string
	sessionID string

	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu          sync.Mutex
	currentTok  string
	sinceToken  map[string][]string // token -> paths observed after it
	tokenOrder  []string
	stopCh      chan struct{}
	wg          sync.WaitGroup
	running     bool
}

// NewSimulatedDaemon creates a daemon watching root. Call Start to begin
// consuming fsnotify events.
func NewSimulatedDaemon(root string) (*SimulatedDaemon, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	d := &SimulatedDaemon{
		root:       root,
		sessionID:  uuid.NewString(),
		watcher:    w,
		logger:     logger.Get(),
		sinceToken: make(map[string][]string),
		stopCh:     make(chan struct{}),
	}
	d.currentTok = d.mintToken()
	d.tokenOrder = append(d.tokenOrder, d.currentTok)
	return d, nil
}

func (d *SimulatedDaemon) mintToken() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// Start begins watching root recursively.
func (d *SimulatedDaemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	if err := addTreeRecursive(d.watcher, d.root); err != nil {
		return err
	}

	d.running = true
	d.wg.Add(1)
	go d.loop()

	d.logger.Info("simulated fsmonitor daemon started",
		zap.String("root", d.root),
		zap.String("session_id", d.sessionID),
	)
	return nil
}

// Stop terminates the watch loop.
func (d *SimulatedDaemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	return d.watcher.Close()
}

func (d *SimulatedDaemon) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.record(ev)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("simulated daemon watch error", zap.Error(err))
		}
	}
}

func (d *SimulatedDaemon) record(ev fsnotify.Event) {
	rel, err := filepath.Rel(d.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if ev.Op&fsnotify.Create == fsnotify.Create {
		if info, statErr := statIsDir(ev.Name); statErr == nil && info {
			_ = addTreeRecursive(d.watcher, ev.Name)
		}
	}

	d.mu.Lock()
	d.sinceToken[d.currentTok] = append(d.sinceToken[d.currentTok], rel)
	d.mu.Unlock()
}

// Query implements interfaces.Oracle: it returns every path observed
// since token (or everything observed since the daemon started, if token
// is empty), minting a new current token for the next query. An
// unrecognized token gets a trivial response.
func (d *SimulatedDaemon) Query(_ context.Context, token string) interfaces.QueryOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	startIdx := 0
	if token != "" {
		found := -1
		for i, t := range d.tokenOrder {
			if t == token {
				found = i
				break
			}
		}
		if found < 0 {
			// Unknown token: the daemon has no record of it, which a real
			// daemon would answer with a trivial "invalidate everything"
			// response.
			newTok := d.mintToken()
			d.tokenOrder = append(d.tokenOrder, newTok)
			d.sinceToken[d.currentTok] = nil
			d.currentTok = newTok
			return interfaces.Trivial(newTok)
		}
		startIdx = found
	}

	var paths []string
	for _, t := range d.tokenOrder[startIdx:] {
		paths = append(paths, d.sinceToken[t]...)
	}

	newTok := d.mintToken()
	d.tokenOrder = append(d.tokenOrder, newTok)
	d.currentTok = newTok

	return interfaces.Paths(newTok, dedupe(paths))
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func statIsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// addTreeRecursive adds dir and every subdirectory beneath it to w.
// fsnotify only watches directories directly; files are observed through
// their parent directory's watch, matching how the teacher's local
// watcher added paths.
func addTreeRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
