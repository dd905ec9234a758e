package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/seopipe/internal/signal"
)

func TestPostgresAppendPrunesThenInserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store, err := NewPostgresStoreWithPool(mock, "signal_records", 30*24*time.Hour, signal.FixedClock{T: now})
	require.NoError(t, err)

	rec := signal.SignalRecord{
		Timestamp: now,
		URL:       "https://example.com",
		Domain:    "example.com",
	}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM signal_records").
		WithArgs(now.AddDate(0, 0, -30)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("INSERT INTO signal_records").
		WithArgs(rec.Timestamp, rec.URL, rec.Domain, payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Append(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadDecodesPayloads(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "signal_records", 0, nil)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"payload"}).
		AddRow([]byte(`{"timestamp":"2025-06-10T00:00:00Z","url":"https://a.example","domain":"a.example"}`)).
		AddRow([]byte(`{"timestamp":"2025-06-11T00:00:00Z","url":"https://b.example","domain":"b.example"}`))

	mock.ExpectQuery("SELECT payload FROM signal_records").WillReturnRows(rows)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "https://a.example", records[0].URL)
	require.Equal(t, "https://b.example", records[1].URL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "bad;drop", 0, nil)
	require.Error(t, err)
}
