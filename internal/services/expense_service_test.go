package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roommates/internal/cache"
	"roommates/internal/core"
	"roommates/internal/storage/jsonfile"
)

type recordingNotifier struct {
	calls     int
	roommates []core.Roommate
	result    core.NotificationResult
}

func (n *recordingNotifier) NotifyExpense(_ context.Context, roommates []core.Roommate, _ core.Expense) core.NotificationResult {
	n.calls++
	n.roommates = roommates
	return n.result
}

type staticIdentities struct {
	id  core.Identity
	err error
}

func (s staticIdentities) Fetch(context.Context) (core.Identity, error) { return s.id, s.err }

func strp(s string) *string     { return &s }
func floatp(f float64) *float64 { return &f }

func newTestCache(t *testing.T, names ...string) *cache.Cache {
	t.Helper()
	store, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	c, err := cache.Load(context.Background(), store)
	require.NoError(t, err)
	for _, n := range names {
		_, err := c.AddRoommate(context.Background(), core.Identity{Nombre: n, Email: n + "@example.com"})
		require.NoError(t, err)
	}
	return c
}

func TestExpenseService_CreateNotifiesWithBalancedRoommates(t *testing.T) {
	c := newTestCache(t, "Ana", "Luis", "Marta")
	n := &recordingNotifier{result: core.NotificationResult{Success: true, Message: "sent"}}
	svc := NewExpenseService(c, n)

	e, res, err := svc.Create(context.Background(), core.ExpenseInput{
		Roommate: strp("Ana"), Descripcion: strp("rent"), Monto: floatp(300),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", e.Roommate)
	assert.True(t, res.Success)
	assert.Equal(t, 1, n.calls)
	require.Len(t, n.roommates, 3)
	assert.Equal(t, 300.0, n.roommates[0].Debe)

	assert.Equal(t, []core.Expense{e}, svc.List())
}

func TestExpenseService_InvalidCreateSkipsNotification(t *testing.T) {
	c := newTestCache(t, "Ana")
	n := &recordingNotifier{}
	svc := NewExpenseService(c, n)

	_, _, err := svc.Create(context.Background(), core.ExpenseInput{Roommate: strp("Ana"), Monto: floatp(10)})
	assert.ErrorIs(t, err, core.ErrInvalidExpense)
	assert.Zero(t, n.calls)
	assert.Empty(t, svc.List())
}

func TestExpenseService_FailedNotificationKeepsExpense(t *testing.T) {
	c := newTestCache(t, "Ana")
	n := &recordingNotifier{result: core.NotificationResult{Success: false, Message: "Error al enviar correo: x"}}
	svc := NewExpenseService(c, n)

	_, res, err := svc.Create(context.Background(), core.ExpenseInput{
		Roommate: strp("Ana"), Descripcion: strp("gas"), Monto: floatp(20),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, svc.List(), 1)
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	c := newTestCache(t, "Ana", "Luis")
	svc := NewExpenseService(c, &recordingNotifier{})
	ctx := context.Background()

	e, _, err := svc.Create(ctx, core.ExpenseInput{Roommate: strp("Ana"), Descripcion: strp("rent"), Monto: floatp(100)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, e.ID, core.ExpenseInput{Monto: floatp(80)})
	require.NoError(t, err)
	assert.Equal(t, 80.0, updated.Monto)
	assert.Equal(t, "rent", updated.Descripcion)

	_, err = svc.Update(ctx, "missing", core.ExpenseInput{Monto: floatp(1)})
	assert.ErrorIs(t, err, core.ErrExpenseNotFound)

	require.NoError(t, svc.Delete(ctx, e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, e.ID), core.ErrExpenseNotFound)
	assert.Empty(t, svc.List())
}

func TestRoommateService_Create(t *testing.T) {
	c := newTestCache(t)
	svc := NewRoommateService(c, staticIdentities{id: core.Identity{Nombre: "Ana Pérez", Email: "ana@example.com"}})
	ctx := context.Background()

	rm, err := svc.Create(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", rm.Nombre)
	assert.NotEmpty(t, rm.ID)

	rm, err = svc.Create(ctx, &core.Identity{Nombre: "Luis", Email: "luis@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Luis", rm.Nombre)
	assert.Len(t, svc.List(), 2)
}

func TestRoommateService_CreateErrors(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, err := NewRoommateService(c, staticIdentities{id: core.Identity{Nombre: "No Mail"}}).Create(ctx, nil)
	assert.ErrorIs(t, err, core.ErrMissingEmail)

	fetchErr := errors.New("randomuser down")
	_, err = NewRoommateService(c, staticIdentities{err: fetchErr}).Create(ctx, nil)
	assert.ErrorIs(t, err, fetchErr)

	assert.Empty(t, c.Roommates())
}
