package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	calls   int
	failOn  int
	failErr error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return pgconn.CommandTag{}, f.failErr
	}
	return pgconn.CommandTag{}, nil
}

func batchOf(n int) []BatchEntry {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	entries := make([]BatchEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, BatchEntry{
			StudentID: int64(i + 1),
			ClassID:   7,
			Date:      day,
			Status:    StatusPresent,
		})
	}
	return entries
}

func TestUpsertEntriesWritesEveryRow(t *testing.T) {
	exec := &fakeExecer{}

	err := upsertEntries(context.Background(), exec, batchOf(3))

	require.NoError(t, err)
	assert.Equal(t, 3, exec.calls)
}

func TestUpsertEntriesAbortsOnFirstRowFailure(t *testing.T) {
	// The error must reach the transaction wrapper so the whole batch
	// rolls back; no row after the failing one may be attempted.
	boom := errors.New("fk violation")
	exec := &fakeExecer{failOn: 2, failErr: boom}

	err := upsertEntries(context.Background(), exec, batchOf(5))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, exec.calls)
}
