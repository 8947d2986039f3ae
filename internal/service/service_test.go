package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fsmonitor/fsmcore/internal/core/interfaces"
	"github.com/fsmonitor/fsmcore/internal/database"
	"github.com/fsmonitor/fsmcore/internal/database/repositories"
	"github.com/fsmonitor/fsmcore/internal/fsindex"
	"github.com/fsmonitor/fsmcore/internal/fsmonitor"
	"go.uber.org/zap"
)

// stubOracle counts how many times it is queried, so tests can assert the
// has_run_once guard actually suppressed a second oracle round trip.
type stubOracle struct {
	outcome interfaces.QueryOutcome
	calls   int
}

func (s *stubOracle) Query(_ context.Context, _ string) interfaces.QueryOutcome {
	s.calls++
	return s.outcome
}

// setupTestDatabase mirrors the teacher's integration-test helper of the
// same name: a real bbolt database rooted in a temp directory.
func setupTestDatabase(t *testing.T, path string) *database.Manager {
	db, err := database.NewManager(&database.Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Open())
	return db
}

// newTestService builds a Service directly (bypassing New's oracle
// construction) so the oracle can be a stub instead of a real IPC/hook
// transport.
func newTestService(t *testing.T, db *database.Manager, oracle *stubOracle) *Service {
	cfg := fsmonitor.Config{Mode: fsmonitor.ModeIPC}
	diag := fsmonitor.NewDiagnostics()
	engine := fsmonitor.NewEngine(cfg, oracle, diag)
	lifecycle := fsmonitor.NewLifecycle(cfg, engine)

	svc := &Service{
		worktreeRoot: "testroot",
		cfg:          cfg,
		logger:       zap.NewNop(),
		repo:         repositories.NewFSMStateRepository(db),
		diag:         diag,
		codec:        fsmonitor.NewCodec(),
		oracle:       oracle,
		engine:       engine,
		lifecycle:    lifecycle,
		index: &fsindex.Index{
			Entries: []*fsindex.Entry{{Name: "a.txt"}, {Name: "b.txt"}},
		},
	}
	require.NoError(t, svc.load())
	return svc
}

func TestService_DisableThenEnableInOneProcessDoesNotRequeryOracle(t *testing.T) {
	dir := t.TempDir()
	db := setupTestDatabase(t, filepath.Join(dir, "test.db"))
	defer db.Close()

	oracle := &stubOracle{outcome: interfaces.Paths("tok", nil)}
	svc := newTestService(t, db, oracle)
	// Construction already ran one refresh via load's Reconcile.
	require.Equal(t, 1, oracle.calls)

	require.NoError(t, svc.Disable())
	require.NoError(t, svc.Enable())

	// has_run_once is scoped to the process, not to the enabled/disabled
	// session, so re-enabling within the same process must not trigger a
	// second oracle query.
	require.Equal(t, 1, oracle.calls)
}

func TestService_RefreshAfterLoadTimeReconcileIsNoOp(t *testing.T) {
	dir := t.TempDir()
	db := setupTestDatabase(t, filepath.Join(dir, "test.db"))
	defer db.Close()

	// Reconcile (inside load, called from newTestService) already
	// consumes the process's one refresh when the config comes up
	// enabled, so a subsequent manual Refresh must be a no-op.
	oracle := &stubOracle{outcome: interfaces.Paths("tok", nil)}
	svc := newTestService(t, db, oracle)
	require.Equal(t, 1, oracle.calls)

	_, err := svc.Refresh()
	require.NoError(t, err)

	require.Equal(t, 1, oracle.calls)
}
