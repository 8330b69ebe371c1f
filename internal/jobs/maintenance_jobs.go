package jobs

import (
	"context"
	"time"

	"equiprent-backend/internal/logger"
)

const jobTimeout = 5 * time.Minute

// PurgeEndedBlocks deletes non-booked availability blocks that ended more
// than scheduler.block_retention ago. Safe to run repeatedly.
func (jr *JobRunner) PurgeEndedBlocks() {
	jr.runWithRecovery("PurgeEndedBlocks", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := jr.services.Blocks.PurgeEndedBlocks(ctx, jr.config.Scheduler.BlockRetention)
		if err != nil {
			logger.Error("Failed to purge ended blocks", "error", err)
			return
		}
		logger.Info("Purged ended blocks", "count", n, "retention", jr.config.Scheduler.BlockRetention)
	})
}

// ReleaseStalePending cancels bookings stuck in pending for longer than
// scheduler.pending_ttl so abandoned checkouts stop holding units.
func (jr *JobRunner) ReleaseStalePending() {
	jr.runWithRecovery("ReleaseStalePending", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := jr.services.Bookings.ReleaseStalePending(ctx, jr.config.Scheduler.PendingTTL)
		if err != nil {
			logger.Error("Failed to release stale pending bookings", "error", err, "released", n)
			return
		}
		logger.Info("Released stale pending bookings", "count", n, "ttl", jr.config.Scheduler.PendingTTL)
	})
}
