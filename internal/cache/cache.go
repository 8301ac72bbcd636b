// Package cache holds the in-memory copy of roommates and expenses that every
// endpoint reads from.
//
// All writes go through one mutex. A write builds the next collections on
// copies, recomputes balances, persists them, and only swaps them in once the
// store accepted them, so a failed save never leaves memory ahead of disk.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"roommates/internal/core"
	"roommates/internal/log"
	"roommates/internal/storage"
)

type Cache struct {
	mu        sync.RWMutex
	store     storage.Store
	roommates []core.Roommate
	expenses  []core.Expense
	newID     func() string
}

// Load reads the store once and returns a cache over its contents.
func Load(ctx context.Context, store storage.Store) (*Cache, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Cache initialized",
		log.FieldComponent, log.ComponentCache,
		"roommates", len(snap.Roommates),
		"gastos", len(snap.Expenses))

	return &Cache{
		store:     store,
		roommates: snap.Roommates,
		expenses:  snap.Expenses,
		newID:     uuid.NewString,
	}, nil
}

// Roommates returns a copy of the roommate collection.
func (c *Cache) Roommates() []core.Roommate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Roommate, len(c.roommates))
	copy(out, c.roommates)
	return out
}

// Expenses returns a copy of the expense collection.
func (c *Cache) Expenses() []core.Expense {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Expense, len(c.expenses))
	copy(out, c.expenses)
	return out
}

// Ping checks the backing store.
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// AddRoommate registers a new roommate and rebalances, since the even share
// depends on the number of roommates.
func (c *Cache) AddRoommate(ctx context.Context, id core.Identity) (core.Roommate, error) {
	if err := id.Validate(); err != nil {
		return core.Roommate{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rm := core.Roommate{
		ID:     c.newID(),
		Nombre: strings.TrimSpace(id.Nombre),
		Email:  strings.TrimSpace(id.Email),
	}
	roommates := append(c.cloneRoommates(), rm)
	if err := c.commit(ctx, roommates, c.expenses, false); err != nil {
		return core.Roommate{}, err
	}
	return c.roommates[len(c.roommates)-1], nil
}

// CreateExpense appends a new expense. It returns the stored expense and the
// roommate collection as of the write, for the notification.
func (c *Cache) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, []core.Roommate, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := in.Apply(core.Expense{ID: c.newID()})
	e, err := c.attribute(e, in)
	if err != nil {
		return core.Expense{}, nil, err
	}

	expenses := append(c.cloneExpenses(), e)
	if err := c.commit(ctx, c.roommates, expenses, true); err != nil {
		return core.Expense{}, nil, err
	}
	return e, c.cloneRoommates(), nil
}

// UpdateExpense merges the present fields of in into the expense with the
// given id.
func (c *Cache) UpdateExpense(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrExpenseNotFound, id)
	}
	if err := in.ValidatePartial(); err != nil {
		return core.Expense{}, err
	}

	e := in.Apply(c.expenses[idx])
	e, err := c.attribute(e, in)
	if err != nil {
		return core.Expense{}, err
	}

	expenses := c.cloneExpenses()
	expenses[idx] = e
	if err := c.commit(ctx, c.roommates, expenses, true); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// DeleteExpense removes the expense with the given id. An unknown id is
// reported without touching the store.
func (c *Cache) DeleteExpense(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", core.ErrExpenseNotFound, id)
	}

	expenses := make([]core.Expense, 0, len(c.expenses)-1)
	expenses = append(expenses, c.expenses[:idx]...)
	expenses = append(expenses, c.expenses[idx+1:]...)
	return c.commit(ctx, c.roommates, expenses, true)
}

// attribute binds e to the roommate referenced by in. Without a reference in
// the input the existing attribution is kept.
func (c *Cache) attribute(e core.Expense, in core.ExpenseInput) (core.Expense, error) {
	id, name, ok := in.RoommateRef()
	if !ok {
		return e, nil
	}
	i, found := core.FindRoommate(c.roommates, id, name)
	if !found {
		ref := name
		if id != "" {
			ref = id
		}
		return core.Expense{}, fmt.Errorf("%w: %q", core.ErrUnknownRoommate, ref)
	}
	e.Roommate = c.roommates[i].Nombre
	e.RoommateID = c.roommates[i].ID
	return e, nil
}

// commit recomputes balances for the candidate collections, persists them and
// swaps them in. Callers hold c.mu.
func (c *Cache) commit(ctx context.Context, roommates []core.Roommate, expenses []core.Expense, expensesChanged bool) error {
	balanced, err := core.Recalculate(roommates, expenses)
	if err != nil && !errors.Is(err, core.ErrNoRoommates) {
		return fmt.Errorf("recalculate balances: %w", err)
	}

	if expensesChanged {
		if err := c.store.SaveExpenses(ctx, expenses); err != nil {
			return fmt.Errorf("save gastos: %w", err)
		}
	}
	if err := c.store.SaveRoommates(ctx, balanced); err != nil {
		if expensesChanged {
			// Put the previous expense snapshot back so disk matches memory.
			if rerr := c.store.SaveExpenses(context.WithoutCancel(ctx), c.expenses); rerr != nil {
				slog.ErrorContext(ctx, "Failed to restore gastos after roommate save error",
					log.FieldComponent, log.ComponentCache,
					log.FieldError, rerr)
			}
		}
		return fmt.Errorf("save roommates: %w", err)
	}

	c.roommates, c.expenses = balanced, expenses
	return nil
}

func (c *Cache) indexOf(id string) int {
	for i, e := range c.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) cloneRoommates() []core.Roommate {
	out := make([]core.Roommate, len(c.roommates), len(c.roommates)+1)
	copy(out, c.roommates)
	return out
}

func (c *Cache) cloneExpenses() []core.Expense {
	out := make([]core.Expense, len(c.expenses), len(c.expenses)+1)
	copy(out, c.expenses)
	return out
}
