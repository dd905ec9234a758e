package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seoforge/seopipe/internal/signal"
)

func tempStore(t *testing.T, now time.Time) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history", "signals.json")
	s, err := NewFileStore(FileConfig{Path: path}, signal.FixedClock{T: now}, nil)
	require.NoError(t, err)
	return s, path
}

func recordAt(ts time.Time, url string) signal.SignalRecord {
	return signal.SignalRecord{Timestamp: ts, URL: url, Domain: signal.Domain(url)}
}

func TestAppendCreatesFileAndParents(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	s, path := tempStore(t, now)

	require.NoError(t, s.Append(context.Background(), recordAt(now, "https://example.com")))

	_, err := os.Stat(path)
	require.NoError(t, err)

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "https://example.com", records[0].URL)
}

func TestAppendPrunesExpiredRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	s, _ := tempStore(t, now)
	ctx := context.Background()

	// A 40-day-old record falls outside the 30-day window; a 5-day-old
	// record survives.
	old := recordAt(now.AddDate(0, 0, -40), "https://old.example")
	recent := recordAt(now.AddDate(0, 0, -5), "https://recent.example")
	require.NoError(t, s.write([]signal.SignalRecord{old, recent}))

	require.NoError(t, s.Append(ctx, recordAt(now, "https://new.example")))

	records, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "https://recent.example", records[0].URL)
	require.Equal(t, "https://new.example", records[1].URL)
}

func TestLoadDoesNotPrune(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	s, _ := tempStore(t, now)

	old := recordAt(now.AddDate(0, 0, -40), "https://old.example")
	require.NoError(t, s.write([]signal.SignalRecord{old}))

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestReadNormalizesLegacySingleRecordFile(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	s, path := tempStore(t, now)

	legacy := `{"timestamp":"2025-06-10T00:00:00Z","url":"https://legacy.example","domain":"legacy.example"}`
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "https://legacy.example", records[0].URL)

	// Appending rewrites the file as an array.
	require.NoError(t, s.Append(context.Background(), recordAt(now, "https://new.example")))
	records, err = s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s, _ := tempStore(t, time.Now().UTC())
	records, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestReadRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	s, path := tempStore(t, time.Now().UTC())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := s.Load(context.Background())
	require.Error(t, err)
}
