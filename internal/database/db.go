// Package database manages the bbolt store backing one or more monitored
// worktrees' FSM state: the persisted extension envelope and the trimmed
// refresh-run history internal/database/repositories reads and writes.
package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsmonitor/fsmcore/pkg/logger"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Database buckets
const (
	// BucketFSMState stores the persisted FSM extension envelope
	// (token + serialized dirty bitmap) per worktree root.
	BucketFSMState = "fsm_state"

	// BucketFSMHistory stores a trimmed history of past refresh runs,
	// keyed by correlation id.
	BucketFSMHistory = "fsm_history"

	// BucketConfig stores configuration cache
	BucketConfig = "config"

	// BucketMetadata stores general metadata
	BucketMetadata = "metadata"
)

// envelopeKeyPrefix and historyKeyPrefix namespace keys within
// BucketFSMState and BucketFSMHistory respectively, so one database can
// back more than one monitored worktree without key collisions.
const (
	envelopeKeyPrefix = "worktree:"
	historyKeyPrefix  = "run:"
)

// EnvelopeKey builds the BucketFSMState key for worktreeRoot's persisted
// extension envelope.
func EnvelopeKey(worktreeRoot string) string {
	return envelopeKeyPrefix + worktreeRoot
}

// HistoryKey builds the BucketFSMHistory key for one refresh run, scoped
// to worktreeRoot and identified by correlationID.
func HistoryKey(worktreeRoot, correlationID string) string {
	return historyKeyPrefix + worktreeRoot + ":" + correlationID
}

// HistoryPrefix returns the BucketFSMHistory key prefix covering every
// run recorded for worktreeRoot, for use with ListWithPrefix.
func HistoryPrefix(worktreeRoot string) string {
	return historyKeyPrefix + worktreeRoot + ":"
}

// Manager manages the bbolt database connection.
type Manager struct {
	DB      *bolt.DB
	path    string
	logger  *zap.Logger
	mu      sync.RWMutex
	isOpen  bool
	options *Options
}

// Options represents database options.
type Options struct {
	Path            string
	FileMode        uint32
	Timeout         time.Duration
	NoGrowSync      bool
	NoFreelistSync  bool
	ReadOnly        bool
	MmapFlags       int
	InitialMmapSize int
	PageSize        int
	NoSync          bool
}

// DefaultOptions returns default database options, rooted at the same
// per-user directory pkg/logger writes its rotated log files under.
func DefaultOptions() *Options {
	home, _ := os.UserHomeDir()
	return &Options{
		Path:           filepath.Join(home, ".fsmonitor", "db", "fsmcore.db"),
		FileMode:       0600,
		Timeout:        1 * time.Second,
		NoGrowSync:     false,
		NoFreelistSync: false,
		ReadOnly:       false,
		PageSize:       4096,
		NoSync:         false,
	}
}

// NewManager creates a new database manager.
func NewManager(options *Options) (*Manager, error) {
	if options == nil {
		options = DefaultOptions()
	}

	return &Manager{
		path:    options.Path,
		logger:  logger.Get(),
		options: options,
	}, nil
}

// Open opens the database connection and creates the FSM buckets.
func (m *Manager) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isOpen {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(m.path, os.FileMode(m.options.FileMode), &bolt.Options{
		Timeout:         m.options.Timeout,
		NoGrowSync:      m.options.NoGrowSync,
		NoFreelistSync:  m.options.NoFreelistSync,
		ReadOnly:        m.options.ReadOnly,
		MmapFlags:       m.options.MmapFlags,
		InitialMmapSize: m.options.InitialMmapSize,
		PageSize:        m.options.PageSize,
		NoSync:          m.options.NoSync,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	m.DB = db
	m.isOpen = true

	if err := m.initBuckets(); err != nil {
		m.DB.Close()
		m.isOpen = false
		return fmt.Errorf("failed to initialize buckets: %w", err)
	}

	m.logger.Info("fsmonitor database opened", zap.String("path", m.path))
	return nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOpen || m.DB == nil {
		return nil
	}

	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.isOpen = false
	m.logger.Info("fsmonitor database closed")
	return nil
}

func (m *Manager) initBuckets() error {
	buckets := []string{BucketFSMState, BucketFSMHistory, BucketConfig, BucketMetadata}

	return m.DB.Update(func(tx *bolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// IsOpen checks if the database is open.
func (m *Manager) IsOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isOpen
}

// Transaction executes a function within a database transaction.
func (m *Manager) Transaction(writable bool, fn func(*bolt.Tx) error) error {
	if !m.IsOpen() {
		return fmt.Errorf("database is not open")
	}

	if writable {
		return m.DB.Update(fn)
	}
	return m.DB.View(fn)
}

// Put stores a key-value pair in a bucket.
func (m *Manager) Put(bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return m.Transaction(true, func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put([]byte(key), data)
	})
}

// Get retrieves a value from a bucket.
func (m *Manager) Get(bucket, key string, value interface{}) error {
	return m.Transaction(false, func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}

		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("key %s not found in bucket %s", key, bucket)
		}

		return json.Unmarshal(data, value)
	})
}

// Delete removes a key from a bucket.
func (m *Manager) Delete(bucket, key string) error {
	return m.Transaction(true, func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Delete([]byte(key))
	})
}

// ListWithPrefix lists all keys with a specific prefix, in bbolt's
// natural byte-sorted key order.
func (m *Manager) ListWithPrefix(bucket, prefix string) ([]string, error) {
	var keys []string
	prefixBytes := []byte(prefix)

	err := m.Transaction(false, func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}

		c := b.Cursor()
		for k, _ := c.Seek(prefixBytes); k != nil && bytes.HasPrefix(k, prefixBytes); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})

	return keys, err
}
