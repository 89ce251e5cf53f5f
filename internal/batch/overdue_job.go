package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"library-service/internal/domain/loan"
	"library-service/internal/infrastructure/monitoring"
	"library-service/internal/notification"
)

// ReminderMessage is the fixed body of every overdue reminder.
const ReminderMessage = "Attention, you have an overdue book loan!"

type OverdueSweepJob struct {
	loanService loan.Service
	dispatcher  *notification.Dispatcher
	graceDays   int
	logger      *slog.Logger
}

func NewOverdueSweepJob(
	loanSvc loan.Service,
	dispatcher *notification.Dispatcher,
	graceDays int,
	logger *slog.Logger,
) *OverdueSweepJob {
	if loanSvc == nil || dispatcher == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	if graceDays < 0 {
		graceDays = 0
	}
	return &OverdueSweepJob{
		loanService: loanSvc,
		dispatcher:  dispatcher,
		graceDays:   graceDays,
		logger:      logger.With("job", "OverdueSweep"),
	}
}

// Run performs one sweep: find every active loan older than the cutoff and
// mail its customer a reminder. The cron scheduler fires runs one at a time,
// so two sweeps are never in flight together.
func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue loan sweep.")

	cutoff := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, -j.graceDays)
	j.logger.DebugContext(ctx, "Computed overdue cutoff.", slog.Time("cutoff", cutoff))

	overdueLoans, err := j.loanService.FindOverdue(ctx, cutoff)
	if err != nil {
		monitoring.RecordOverdueSweepRun("error")
		j.logger.ErrorContext(ctx, "Failed to fetch overdue loans, aborting sweep.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, failed to fetch overdue loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched overdue loans.", slog.Int("count", len(overdueLoans)))

	// Recipient order follows the query result; duplicates are kept, one
	// reminder per overdue loan.
	recipients := make([]string, 0, len(overdueLoans))
	for _, l := range overdueLoans {
		recipients = append(recipients, l.Customer)
	}

	if err := j.dispatcher.Send(ctx, ReminderMessage, recipients); err != nil {
		monitoring.RecordOverdueSweepRun("error")
		j.logger.ErrorContext(ctx, "Failed to send overdue reminders.", slog.Any("error", err))
		return fmt.Errorf("failed to send overdue reminders: %w", err)
	}

	monitoring.RecordOverdueSweepRun("success")
	j.logger.InfoContext(ctx, "Overdue loan sweep finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("overdue_loans", len(overdueLoans)),
		slog.Int("recipients", len(recipients)),
	)
	return nil
}
