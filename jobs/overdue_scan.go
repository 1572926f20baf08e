package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// OverdueScanner marks due periods overdue; implemented by the
// installments service.
type OverdueScanner interface {
	MarkOverdue(ctx context.Context, cutoff time.Time) (int, error)
}

// OverdueScanJob flags installment periods whose due dates have passed.
type OverdueScanJob struct {
	scanner OverdueScanner
	logger  *slog.Logger
	clock   func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(scanner OverdueScanner, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{
		scanner: scanner,
		logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the clock for testing.
func (j *OverdueScanJob) WithClock(clock func() time.Time) {
	if clock != nil {
		j.clock = clock
	}
}

// Handle executes the overdue sweep.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.scanner == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	cutoff := payload.Cutoff
	if cutoff.IsZero() {
		cutoff = j.clock()
	}
	marked, err := j.scanner.MarkOverdue(ctx, cutoff)
	if err != nil {
		j.logger.Error("overdue scan failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("overdue scan complete",
		slog.Time("cutoff", cutoff),
		slog.Int("periods_marked", marked),
	)
	return nil
}
