// Package history persists SignalRecords as an append-only log with a
// rolling retention window.
package history

import (
	"context"

	"github.com/seoforge/seopipe/internal/signal"
)

// Store is the persistence seam for historical signal records.
type Store interface {
	// Append adds one record and prunes entries older than the
	// retention window.
	Append(ctx context.Context, record signal.SignalRecord) error
	// Load returns the retained records, oldest first.
	Load(ctx context.Context) ([]signal.SignalRecord, error)
	// Close releases underlying resources.
	Close() error
}

// NoOp discards every record. It keeps the pipeline runnable when
// persistence is disabled.
type NoOp struct{}

// Append implements Store.
func (NoOp) Append(context.Context, signal.SignalRecord) error { return nil }

// Load implements Store.
func (NoOp) Load(context.Context) ([]signal.SignalRecord, error) { return nil, nil }

// Close implements Store.
func (NoOp) Close() error { return nil }
