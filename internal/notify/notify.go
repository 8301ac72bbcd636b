// Package notify tells roommates about new expenses.
//
// Delivery never fails the request that triggered it: every outcome is
// reported as a core.NotificationResult and appended to the email log.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"roommates/internal/core"
	"roommates/internal/log"
	"roommates/internal/metrics"
)

// Status messages written to the email log and returned to clients.
const (
	statusNoRecipients = "No hay destinatarios definidos."
	statusSent         = "Correo enviado a: "
	statusQueued       = "Correo en cola para: "
	statusFailed       = "Error al enviar correo: "
)

const sendTimeout = 30 * time.Second

// Notifier announces a newly created expense to the roommates.
type Notifier interface {
	NotifyExpense(ctx context.Context, roommates []core.Roommate, e core.Expense) core.NotificationResult
}

// Publisher hands an expense-created event to a queue.
type Publisher interface {
	PublishExpenseCreated(ctx context.Context, recipients []string, e core.Expense) error
}

// MailNotifier sends the email inline.
type MailNotifier struct {
	mailer Mailer
	log    *EmailLog
}

func NewMailNotifier(mailer Mailer, emailLog *EmailLog) *MailNotifier {
	return &MailNotifier{mailer: mailer, log: emailLog}
}

func (n *MailNotifier) NotifyExpense(ctx context.Context, roommates []core.Roommate, e core.Expense) core.NotificationResult {
	res, _ := n.Deliver(ctx, core.Emails(roommates), e)
	return res
}

// Deliver sends the announcement for e to recipients. The returned error is
// non-nil only when a send was attempted and failed.
func (n *MailNotifier) Deliver(ctx context.Context, recipients []string, e core.Expense) (core.NotificationResult, error) {
	if len(recipients) == 0 {
		return n.record(ctx, false, statusNoRecipients, metrics.NotifyFailed), nil
	}

	body, err := RenderBody(e)
	if err != nil {
		return n.record(ctx, false, statusFailed+err.Error(), metrics.NotifyFailed), err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := n.mailer.Send(ctx, recipients, Subject, body); err != nil {
		return n.record(ctx, false, statusFailed+err.Error(), metrics.NotifyFailed), err
	}
	return n.record(ctx, true, statusSent+strings.Join(recipients, ", "), metrics.NotifySent), nil
}

func (n *MailNotifier) record(ctx context.Context, success bool, status, outcome string) core.NotificationResult {
	return recordOutcome(ctx, n.log, success, status, outcome)
}

// QueueNotifier publishes the event for the notify worker and reports the
// email as queued.
type QueueNotifier struct {
	publisher Publisher
	log       *EmailLog
}

func NewQueueNotifier(publisher Publisher, emailLog *EmailLog) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, log: emailLog}
}

func (n *QueueNotifier) NotifyExpense(ctx context.Context, roommates []core.Roommate, e core.Expense) core.NotificationResult {
	recipients := core.Emails(roommates)
	if len(recipients) == 0 {
		return recordOutcome(ctx, n.log, false, statusNoRecipients, metrics.NotifyFailed)
	}
	if err := n.publisher.PublishExpenseCreated(ctx, recipients, e); err != nil {
		return recordOutcome(ctx, n.log, false, statusFailed+fmt.Sprintf("publish: %v", err), metrics.NotifyFailed)
	}
	return recordOutcome(ctx, n.log, true, statusQueued+strings.Join(recipients, ", "), metrics.NotifyQueued)
}

func recordOutcome(ctx context.Context, emailLog *EmailLog, success bool, status, outcome string) core.NotificationResult {
	attrs := []any{log.FieldComponent, log.ComponentNotify, log.FieldSuccess, success, "status", status}
	if success {
		slog.InfoContext(ctx, "Expense notification", attrs...)
	} else {
		slog.WarnContext(ctx, "Expense notification", attrs...)
	}
	if err := emailLog.Append(status); err != nil {
		slog.ErrorContext(ctx, "Failed to append email log",
			log.FieldComponent, log.ComponentNotify,
			log.FieldError, err)
	}
	metrics.ObserveNotification(outcome)
	return core.NotificationResult{Success: success, Message: status}
}
