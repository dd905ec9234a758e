package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// DefaultRetention is the rolling window kept in the historical log.
const DefaultRetention = 30 * 24 * time.Hour

// FileConfig controls the JSON-file store.
type FileConfig struct {
	Path      string
	Retention time.Duration
}

// FileStore keeps the historical log in a single JSON array on disk.
// A mutex serializes writers within this process; multi-process
// deployments should use the Postgres store instead.
type FileStore struct {
	mu     sync.Mutex
	path   string
	keep   time.Duration
	clock  signal.Clock
	logger *zap.Logger
}

// NewFileStore builds a FileStore. Parent directories are created on
// first write, not here.
func NewFileStore(cfg FileConfig, clock signal.Clock, logger *zap.Logger) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history file path is required")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if clock == nil {
		clock = signal.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   cfg.Path,
		keep:   cfg.Retention,
		clock:  clock,
		logger: logger,
	}, nil
}

// Append adds record to the log, dropping retained entries that fell
// out of the retention window. Pruning happens only on write; Load
// returns the file as stored.
func (s *FileStore) Append(_ context.Context, record signal.SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		metrics.ObserveHistoryAppend("error")
		return err
	}

	cutoff := s.clock.Now().Add(-s.keep)
	kept := records[:0]
	pruned := 0
	for _, r := range records {
		if r.Timestamp.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	kept = append(kept, record)

	if err := s.write(kept); err != nil {
		metrics.ObserveHistoryAppend("error")
		return err
	}
	if pruned > 0 {
		s.logger.Info("pruned expired history records",
			zap.Int("pruned", pruned),
			zap.Int("retained", len(kept)),
		)
	}
	metrics.ObserveHistoryAppend("ok")
	return nil
}

// Load returns every stored record without pruning.
func (s *FileStore) Load(_ context.Context) ([]signal.SignalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// read parses the log file. A missing file is an empty log. Legacy
// files holding a single record object instead of an array are
// normalized to a one-element slice.
func (s *FileStore) read() ([]signal.SignalRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var records []signal.SignalRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var single signal.SignalRecord
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("decode history file: %w", err)
	}
	s.logger.Warn("normalized legacy single-record history file",
		zap.String("path", s.path),
	)
	return []signal.SignalRecord{single}, nil
}

func (s *FileStore) write(records []signal.SignalRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}
