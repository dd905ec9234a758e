package history

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for the
// historical log.
type PostgresConfig struct {
	DSN             string
	Table           string
	Retention       time.Duration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querierCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore keeps the historical log in a Postgres table, one JSONB
// payload per record. It is the multi-process alternative to FileStore.
type PostgresStore struct {
	pool  querierCloser
	table string
	keep  time.Duration
	clock signal.Clock
}

// NewPostgresStore creates a Postgres-backed Store using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, clock signal.Clock) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStoreWithPool(pool, cfg.Table, cfg.Retention, clock)
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool querierCloser, table string, retention time.Duration, clock signal.Clock) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "signal_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clock == nil {
		clock = signal.SystemClock{}
	}
	return &PostgresStore{pool: pool, table: table, keep: retention, clock: clock}, nil
}

// Append inserts record and deletes rows older than the retention
// window.
func (s *PostgresStore) Append(ctx context.Context, record signal.SignalRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		metrics.ObserveHistoryAppend("error")
		return fmt.Errorf("encode record: %w", err)
	}

	cutoff := s.clock.Now().Add(-s.keep)
	prune := fmt.Sprintf(`DELETE FROM %s WHERE recorded_at < $1`, s.table)
	if _, err := s.pool.Exec(ctx, prune, cutoff); err != nil {
		metrics.ObserveHistoryAppend("error")
		return fmt.Errorf("prune history: %w", err)
	}

	insert := fmt.Sprintf(`
INSERT INTO %s (recorded_at, url, domain, payload)
VALUES ($1, $2, $3, $4)`, s.table)
	if _, err := s.pool.Exec(ctx, insert, record.Timestamp, record.URL, record.Domain, payload); err != nil {
		metrics.ObserveHistoryAppend("error")
		return fmt.Errorf("insert record: %w", err)
	}
	metrics.ObserveHistoryAppend("ok")
	return nil
}

// Load returns every retained record, oldest first.
func (s *PostgresStore) Load(ctx context.Context) ([]signal.SignalRecord, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY recorded_at ASC`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []signal.SignalRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan payload: %w", err)
		}
		var record signal.SignalRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
