package repositories

import (
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/fsmonitor/fsmcore/internal/database"
)

// MaxHistoryEntries bounds how many history entries are kept per
// worktree; AppendHistory drops the oldest beyond it, mirroring the teacher's
// preference for trimmed, bounded histories over unbounded logs.
const MaxHistoryEntries = 50

// PersistedEnvelope is the on-disk JSON shape of one worktree's FSM
// extension, storing the codec's encoded bytes rather than re-deriving
// them, so a restart never has to guess the bitmap back into existence.
type PersistedEnvelope struct {
	WorktreeRoot string    `json:"worktree_root"`
	ExtensionB64 string     `json:"extension_b64"`
	SavedAt      time.Time `json:"saved_at"`
}

// HistoryEntry records the outcome of one enable or refresh run, for the
// "fsmonitor status --detailed" command to surface.
type HistoryEntry struct {
	CorrelationID string    `json:"correlation_id"`
	WorktreeRoot  string    `json:"worktree_root"`
	RanAt         time.Time `json:"ran_at"`
	Outcome       string    `json:"outcome"` // "paths", "trivial", "disabled"
	PathsApplied  int       `json:"paths_applied"`
	Token         string    `json:"token"`
}

// FSMStateRepository persists FSM extension envelopes and refresh history
// in the database, grounded on the teacher's state repository's
// bucket-scoped CRUD pattern.
type FSMStateRepository struct {
	db *database.Manager
}

// NewFSMStateRepository creates a new FSM state repository.
func NewFSMStateRepository(db *database.Manager) *FSMStateRepository {
	return &FSMStateRepository{db: db}
}

// SaveEnvelope stores the raw encoded extension bytes for worktreeRoot.
func (r *FSMStateRepository) SaveEnvelope(worktreeRoot string, encoded []byte) error {
	envelope := &PersistedEnvelope{
		WorktreeRoot: worktreeRoot,
		ExtensionB64: base64.StdEncoding.EncodeToString(encoded),
		SavedAt:      time.Now(),
	}
	key := database.EnvelopeKey(worktreeRoot)
	return r.db.Put(database.BucketFSMState, key, envelope)
}

// LoadEnvelope retrieves the raw encoded extension bytes for worktreeRoot.
// It returns (nil, nil) if nothing has been persisted yet.
func (r *FSMStateRepository) LoadEnvelope(worktreeRoot string) ([]byte, error) {
	key := database.EnvelopeKey(worktreeRoot)
	var envelope PersistedEnvelope
	err := r.db.Get(database.BucketFSMState, key, &envelope)
	if err != nil {
		if err.Error() == fmt.Sprintf("key %s not found in bucket %s", key, database.BucketFSMState) {
			return nil, nil
		}
		return nil, err
	}
	return base64.StdEncoding.DecodeString(envelope.ExtensionB64)
}

// DeleteEnvelope removes the persisted envelope for worktreeRoot, used
// when FSM is disabled for a tree the repository previously tracked.
func (r *FSMStateRepository) DeleteEnvelope(worktreeRoot string) error {
	key := database.EnvelopeKey(worktreeRoot)
	return r.db.Delete(database.BucketFSMState, key)
}

// AppendHistory records one refresh run, trimming the oldest entries for
// worktreeRoot beyond MaxHistoryEntries.
func (r *FSMStateRepository) AppendHistory(entry *HistoryEntry) error {
	key := database.HistoryKey(entry.WorktreeRoot, entry.CorrelationID)
	if err := r.db.Put(database.BucketFSMHistory, key, entry); err != nil {
		return err
	}
	return r.trimHistory(entry.WorktreeRoot)
}

// ListHistory returns the persisted history entries for worktreeRoot,
// oldest first. Keys are correlation-id-suffixed and not themselves
// chronological, so results are sorted by RanAt rather than key order.
func (r *FSMStateRepository) ListHistory(worktreeRoot string) ([]*HistoryEntry, error) {
	keys, err := r.db.ListWithPrefix(database.BucketFSMHistory, database.HistoryPrefix(worktreeRoot))
	if err != nil {
		return nil, err
	}

	entries := make([]*HistoryEntry, 0, len(keys))
	for _, k := range keys {
		var e HistoryEntry
		if err := r.db.Get(database.BucketFSMHistory, k, &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RanAt.Before(entries[j].RanAt) })
	return entries, nil
}

func (r *FSMStateRepository) trimHistory(worktreeRoot string) error {
	entries, err := r.ListHistory(worktreeRoot)
	if err != nil {
		return err
	}
	if len(entries) <= MaxHistoryEntries {
		return nil
	}

	excess := len(entries) - MaxHistoryEntries
	for i := 0; i < excess; i++ {
		key := database.HistoryKey(entries[i].WorktreeRoot, entries[i].CorrelationID)
		if err := r.db.Delete(database.BucketFSMHistory, key); err != nil {
			return err
		}
	}
	return nil
}
