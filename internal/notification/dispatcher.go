package notification

import (
	"context"
	"fmt"
	"log/slog"

	"library-service/internal/infrastructure/monitoring"
)

// Subject is fixed for every reminder batch; only the body and recipient
// list vary per send.
const Subject = "Overdue book loan"

// Sender is the outbound mail transport boundary.
type Sender interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	if sender == nil {
		panic("notification sender cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Dispatcher{
		sender: sender,
		logger: logger.With(slog.String("component", "NotificationDispatcher")),
	}
}

// Send delivers one message with the fixed subject to all recipients in a
// single transport call. An empty recipient list is a skip: sending to zero
// recipients has no observable effect. Transport failures are not retried
// here; they propagate to the caller.
func (d *Dispatcher) Send(ctx context.Context, message string, recipients []string) error {
	if len(recipients) == 0 {
		d.logger.InfoContext(ctx, "No recipients, skipping notification send")
		return nil
	}

	d.logger.InfoContext(ctx, "Dispatching notification", slog.Int("recipients", len(recipients)))
	if err := d.sender.Send(ctx, Subject, message, recipients); err != nil {
		d.logger.ErrorContext(ctx, "Failed to dispatch notification", slog.Any("error", err))
		return fmt.Errorf("failed to dispatch notification: %w", err)
	}

	monitoring.RecordOverdueNotifications(len(recipients))
	d.logger.InfoContext(ctx, "Notification dispatched", slog.Int("recipients", len(recipients)))
	return nil
}
