package services

import (
	"context"
	"fmt"
	"log/slog"

	"roommates/internal/cache"
	"roommates/internal/core"
	"roommates/internal/log"
	"roommates/internal/metrics"
	"roommates/internal/notify"
)

// ExpenseService orchestrates expense operations across the cache and the
// notifier.
type ExpenseService struct {
	cache    *cache.Cache
	notifier notify.Notifier
}

func NewExpenseService(c *cache.Cache, n notify.Notifier) *ExpenseService {
	return &ExpenseService{cache: c, notifier: n}
}

// List returns every expense in insertion order.
func (s *ExpenseService) List() []core.Expense {
	return s.cache.Expenses()
}

// Create stores a new expense, rebalances, and then announces it. The
// notification outcome never turns a stored expense into an error.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, core.NotificationResult, error) {
	e, roommates, err := s.cache.CreateExpense(ctx, in)
	metrics.ObserveExpenseOp(log.OpCreate, err)
	if err != nil {
		return core.Expense{}, core.NotificationResult{}, fmt.Errorf("create gasto: %w", err)
	}
	s.logWrite(ctx, log.OpCreate, e)

	res := s.notifier.NotifyExpense(ctx, roommates, e)
	return e, res, nil
}

// Update merges the present fields of in into the expense with the given id.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.cache.UpdateExpense(ctx, id, in)
	metrics.ObserveExpenseOp(log.OpUpdate, err)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update gasto: %w", err)
	}
	s.logWrite(ctx, log.OpUpdate, e)
	return e, nil
}

// Delete removes the expense with the given id.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	err := s.cache.DeleteExpense(ctx, id)
	metrics.ObserveExpenseOp(log.OpDelete, err)
	if err != nil {
		return fmt.Errorf("delete gasto: %w", err)
	}
	s.logWrite(ctx, log.OpDelete, core.Expense{ID: id})
	return nil
}

func (s *ExpenseService) logWrite(ctx context.Context, op string, e core.Expense) {
	expenses := s.cache.Expenses()
	metrics.SetState(len(s.cache.Roommates()), core.Total(expenses))

	fields := log.NewFields().
		WithComponent(log.ComponentExpense).
		WithOperation(op).
		WithExpense(e.ID, e.Roommate, e.Monto)
	slog.InfoContext(ctx, "Gasto saved", fields.ToSlice()...)
}
