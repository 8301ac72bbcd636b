// Package worker contains the queue consumers run by cmd/notify-worker.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"roommates/internal/amqp"
	"roommates/internal/core"
	"roommates/internal/log"
)

// Deliverer sends the new-expense email to an explicit recipient list.
type Deliverer interface {
	Deliver(ctx context.Context, recipients []string, e core.Expense) (core.NotificationResult, error)
}

// NotifyWorker sends the emails for queued expense-created events.
type NotifyWorker struct {
	deliverer Deliverer
}

func NewNotifyWorker(d Deliverer) *NotifyWorker {
	return &NotifyWorker{deliverer: d}
}

// HandleExpenseCreated sends one notification. A failed send is returned so
// the consumer can reject the message.
func (w *NotifyWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	slog.InfoContext(ctx, "Processing expense created message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExpenseID, msg.Expense.ID,
		log.FieldRecipients, len(msg.Recipients),
		"queued_at", msg.Timestamp)

	res, err := w.deliverer.Deliver(ctx, msg.Recipients, msg.Expense)
	if err != nil {
		return fmt.Errorf("deliver notification for gasto %s: %w", msg.Expense.ID, err)
	}

	slog.InfoContext(ctx, "Expense notification handled",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExpenseID, msg.Expense.ID,
		log.FieldSuccess, res.Success,
		"status", res.Message)
	return nil
}
