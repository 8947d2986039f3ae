// Package service wires the FSM integration core (internal/fsmonitor,
// internal/fsindex) to persistence and configuration, the way the
// teacher's sync engine wires a provider, a watcher and a strategy to the
// database. This is the layer the CLI commands call into.
package service

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
	"github.com/fsmonitor/fsmcore/internal/database"
	"github.com/fsmonitor/fsmcore/internal/database/repositories"
	"github.com/fsmonitor/fsmcore/internal/fsindex"
	"github.com/fsmonitor/fsmcore/internal/fsmonitor"
	pkgerrors "github.com/fsmonitor/fsmcore/pkg/errors"
	pkglogger "github.com/fsmonitor/fsmcore/pkg/logger"
	"go.uber.org/zap"
)

// Service owns one worktree's Index, the FSM components driving it, and
// the repository that persists the extension across process restarts.
type Service struct {
	mu sync.Mutex

	worktreeRoot string
	cfg          fsmonitor.Config
	logger       *zap.Logger

	repo  *repositories.FSMStateRepository
	diag  *fsmonitor.Diagnostics
	codec *fsmonitor.Codec

	oracle    interfaces.Oracle
	engine    *fsmonitor.Engine
	lifecycle *fsmonitor.Lifecycle

	index *fsindex.Index
}

// New builds a Service for worktreeRoot against the given database
// manager and FSM configuration. The database must already be open.
func New(worktreeRoot string, cfg fsmonitor.Config, db *database.Manager) (*Service, error) {
	if worktreeRoot == "" {
		return nil, pkgerrors.NewValidationError("worktree root must not be empty", nil)
	}

	diag := fsmonitor.NewDiagnostics()
	oracle := fsmonitor.NewOracle(cfg, diag)
	engine := fsmonitor.NewEngine(cfg, oracle, diag)
	lifecycle := fsmonitor.NewLifecycle(cfg, engine)

	svc := &Service{
		worktreeRoot: worktreeRoot,
		cfg:          cfg,
		logger:       pkglogger.WithWorktree(worktreeRoot),
		repo:         repositories.NewFSMStateRepository(db),
		diag:         diag,
		codec:        fsmonitor.NewCodec(),
		oracle:       oracle,
		engine:       engine,
		lifecycle:    lifecycle,
		index:        &fsindex.Index{},
	}

	if err := svc.load(); err != nil {
		return nil, err
	}
	if len(svc.index.Entries) == 0 {
		if err := svc.seedFromDisk(); err != nil {
			svc.logger.Warn("failed to seed fsmonitor index from disk", zap.Error(err))
		}
	}
	return svc, nil
}

// load reads any previously persisted extension for this worktree and
// reconciles it against the current configuration, per spec.md §4.5.
func (s *Service) load() error {
	encoded, err := s.repo.LoadEnvelope(s.worktreeRoot)
	if err != nil {
		return fmt.Errorf("load fsmonitor envelope: %w", err)
	}

	if encoded != nil {
		if err := s.codec.Load(s.index, encoded); err != nil {
			if pkgerrors.IsCorruptError(err) {
				s.logger.Warn("discarding corrupt fsmonitor extension, starting fresh",
					zap.String("worktree", s.worktreeRoot), zap.Error(err))
			} else {
				return err
			}
		}
	}

	s.lifecycle.Reconcile(s.index)
	return s.persist()
}

// persist re-encodes and saves the current extension if FSM_CHANGED is
// set, matching spec.md §4.5's "rewrite on save" rule; with no token (FSM
// off) it deletes the saved envelope instead. The bit is cleared once the
// write or delete succeeds.
func (s *Service) persist() error {
	if !s.index.IsFSMChanged() {
		return nil
	}

	if s.index.FSM.LastToken == nil {
		if err := s.repo.DeleteEnvelope(s.worktreeRoot); err != nil {
			return fmt.Errorf("delete fsmonitor envelope: %w", err)
		}
		s.index.ClearFSMChanged()
		return nil
	}

	var buf bytes.Buffer
	if err := s.codec.Store(s.index, &buf); err != nil {
		return fmt.Errorf("encode fsmonitor extension: %w", err)
	}
	if err := s.repo.SaveEnvelope(s.worktreeRoot, buf.Bytes()); err != nil {
		return fmt.Errorf("save fsmonitor envelope: %w", err)
	}
	s.index.ClearFSMChanged()
	return nil
}

// Enable turns FSM on for this worktree, persists the result, and
// records one history entry.
func (s *Service) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Mode == fsmonitor.ModeDisabled {
		s.cfg.Mode = fsmonitor.ModeHook
		if s.cfg.HookPath == "" {
			s.cfg.Mode = fsmonitor.ModeIPC
		}
	}
	s.lifecycle.Tweak(s.index, s.cfg)
	s.recordHistory()
	return s.persist()
}

// Disable turns FSM off for this worktree and persists the result.
func (s *Service) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.Mode = fsmonitor.ModeDisabled
	s.lifecycle.Tweak(s.index, s.cfg)
	return s.persist()
}

// Refresh runs one refresh cycle by hand (the "fsmonitor refresh" CLI
// command). Like every other call into Engine.Refresh, it is a no-op once
// has_run_once is set for this process: the guard is per-process, not
// per-command-invocation.
func (s *Service) Refresh() (RefreshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Refresh(s.index)
	s.recordHistory()
	return s.Status(), s.persist()
}

// Status summarizes the worktree's current FSM state, for "fsmonitor
// status" to render.
func (s *Service) Status() RefreshResult {
	dirty := 0
	for _, e := range s.index.Entries {
		if !e.IsClean() {
			dirty++
		}
	}

	token := ""
	if s.index.FSM.LastToken != nil {
		token = *s.index.FSM.LastToken
	}

	return RefreshResult{
		WorktreeRoot: s.worktreeRoot,
		Enabled:      s.cfg.Enabled(),
		Mode:         string(s.cfg.Mode),
		Token:        token,
		TotalEntries: s.index.Count(),
		DirtyEntries: dirty,
	}
}

// History returns the persisted history of past refresh runs for this
// worktree, oldest first.
func (s *Service) History() ([]*repositories.HistoryEntry, error) {
	return s.repo.ListHistory(s.worktreeRoot)
}

// Entries returns a snapshot of the live index entries, for "fsmonitor
// list" to render.
func (s *Service) Entries() []*fsindex.Entry {
	return s.index.Entries
}

func (s *Service) recordHistory() {
	status := s.Status()
	outcome := "paths"
	switch {
	case !status.Enabled:
		outcome = "disabled"
	case status.DirtyEntries == status.TotalEntries && status.TotalEntries > 0:
		outcome = "trivial"
	}

	entry := &repositories.HistoryEntry{
		CorrelationID: uuid.NewString(),
		WorktreeRoot:  s.worktreeRoot,
		RanAt:         time.Now(),
		Outcome:       outcome,
		PathsApplied:  status.DirtyEntries,
		Token:         status.Token,
	}
	if err := s.repo.AppendHistory(entry); err != nil {
		s.logger.Warn("failed to record fsmonitor history", zap.Error(err))
	}
}

// RefreshResult is the status snapshot returned by Refresh and Status.
type RefreshResult struct {
	WorktreeRoot string
	Enabled      bool
	Mode         string
	Token        string
	TotalEntries int
	DirtyEntries int
}
