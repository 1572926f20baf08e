package jobs

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	cutoff time.Time
	marked int
	err    error
}

func (f *fakeScanner) MarkOverdue(ctx context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.marked, f.err
}

func TestOverdueScanUsesPayloadCutoff(t *testing.T) {
	scanner := &fakeScanner{marked: 3}
	job := NewOverdueScanJob(scanner, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := NewOverdueScanTask(OverdueScanPayload{Cutoff: cutoff})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, cutoff, scanner.cutoff)
}

func TestOverdueScanDefaultsToNow(t *testing.T) {
	scanner := &fakeScanner{}
	job := NewOverdueScanJob(scanner, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	now := time.Date(2025, 7, 1, 2, 0, 0, 0, time.UTC)
	job.WithClock(func() time.Time { return now })

	task, err := NewOverdueScanTask(OverdueScanPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, now, scanner.cutoff)
}

func TestOverdueScanSkipsRetryOnBadPayload(t *testing.T) {
	scanner := &fakeScanner{}
	job := NewOverdueScanJob(scanner, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	task := asynq.NewTask(TaskOverdueScan, []byte(`{not json`))
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}
