package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roommates/internal/cache"
	"roommates/internal/core"
	"roommates/internal/services"
	"roommates/internal/storage"
	"roommates/internal/storage/jsonfile"
)

// countingStore records how often the wrapped store is written.
type countingStore struct {
	storage.Store
	mu     sync.Mutex
	writes int
}

func (s *countingStore) SaveRoommates(ctx context.Context, r []core.Roommate) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.SaveRoommates(ctx, r)
}

func (s *countingStore) SaveExpenses(ctx context.Context, e []core.Expense) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.Store.SaveExpenses(ctx, e)
}

func (s *countingStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type fakeNotifier struct {
	calls  int
	result core.NotificationResult
}

func (n *fakeNotifier) NotifyExpense(context.Context, []core.Roommate, core.Expense) core.NotificationResult {
	n.calls++
	return n.result
}

type fakeIdentities struct {
	id  core.Identity
	err error
}

func (f fakeIdentities) Fetch(context.Context) (core.Identity, error) { return f.id, f.err }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testEnv struct {
	srv      *Server
	store    *countingStore
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T, names ...string) *testEnv {
	t.Helper()
	base, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	store := &countingStore{Store: base}

	c, err := cache.Load(context.Background(), store)
	require.NoError(t, err)
	for _, n := range names {
		_, err := c.AddRoommate(context.Background(), core.Identity{Nombre: n, Email: strings.ToLower(n) + "@example.com"})
		require.NoError(t, err)
	}

	notifier := &fakeNotifier{result: core.NotificationResult{Success: true, Message: "Correo enviado a: test"}}
	srv := NewServer(Config{
		Addr:        ":0",
		ReadyChecks: map[string]Pinger{"store": c},
	},
		services.NewExpenseService(c, notifier),
		services.NewRoommateService(c, fakeIdentities{id: core.Identity{Nombre: "Random User", Email: "random@example.com"}}),
	)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testEnv{srv: srv, store: store, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateExpenseRebalancesRoommates(t *testing.T) {
	env := newTestEnv(t, "Ana", "Luis", "Marta")

	rec := env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"rent","monto":300}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[createdExpenseResponse](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ana", created.Roommate)
	assert.Equal(t, 300.0, created.Monto)
	assert.True(t, created.CorreoResultado.Success)
	assert.Equal(t, 1, env.notifier.calls)

	rec = env.do(t, http.MethodGet, "/roommates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[roommatesResponse](t, rec)
	require.Len(t, got.Roommates, 3)

	want := map[string][2]float64{"Ana": {300, -200}, "Luis": {0, 100}, "Marta": {0, 100}}
	for _, r := range got.Roommates {
		assert.InDelta(t, want[r.Nombre][0], r.Debe, 1e-9, r.Nombre)
		assert.InDelta(t, want[r.Nombre][1], r.Recibe, 1e-9, r.Nombre)
	}
}

func TestCreateExpenseRoundTrip(t *testing.T) {
	env := newTestEnv(t, "Ana")

	rec := env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"pan","monto":2.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[createdExpenseResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/gastos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[expensesResponse](t, rec)
	require.Len(t, list.Gastos, 1)
	assert.Equal(t, created.ID, list.Gastos[0].ID)
	assert.Equal(t, "Ana", list.Gastos[0].Roommate)
	assert.Equal(t, "pan", list.Gastos[0].Descripcion)
	assert.Equal(t, 2.5, list.Gastos[0].Monto)
}

func TestCreateExpenseRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing descripcion", `{"roommate":"Ana","monto":10}`, MsgInvalidData},
		{"monto as string", `{"roommate":"Ana","descripcion":"x","monto":"10"}`, MsgInvalidData},
		{"missing monto", `{"roommate":"Ana","descripcion":"x"}`, MsgInvalidData},
		{"malformed json", `{"roommate":`, MsgInvalidData},
		{"empty body", ``, MsgInvalidData},
		{"unknown roommate", `{"roommate":"Nadie","descripcion":"x","monto":1}`, MsgUnknownRoommate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "Ana")
			writes := env.store.Writes()

			rec := env.do(t, http.MethodPost, "/gasto", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decode[messageBody](t, rec).Message)
			assert.Zero(t, env.notifier.calls)
			assert.Equal(t, writes, env.store.Writes())
			assert.Empty(t, env.srv.expenses.List())
		})
	}
}

func TestFailedNotificationStillCreates(t *testing.T) {
	env := newTestEnv(t, "Ana")
	env.notifier.result = core.NotificationResult{Success: false, Message: "Error al enviar correo: dial tcp"}

	rec := env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"luz","monto":40}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[createdExpenseResponse](t, rec)
	assert.False(t, created.CorreoResultado.Success)
	assert.Contains(t, created.CorreoResultado.Message, "Error al enviar correo")
	assert.Len(t, env.srv.expenses.List(), 1)
}

func TestUpdateExpense(t *testing.T) {
	env := newTestEnv(t, "Ana", "Luis")
	created := decode[createdExpenseResponse](t,
		env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"agua","monto":20}`))

	rec := env.do(t, http.MethodPut, "/gasto/"+created.ID, `{"roommate":"Luis","descripcion":"agua","monto":30}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[updatedExpenseResponse](t, rec)
	assert.Equal(t, MsgExpenseUpdated, updated.Message)
	assert.Equal(t, created.ID, updated.Gasto.ID)
	assert.Equal(t, "Luis", updated.Gasto.Roommate)
	assert.Equal(t, 30.0, updated.Gasto.Monto)

	rec = env.do(t, http.MethodPut, "/gasto/"+created.ID, `{"monto":50}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Luis", decode[updatedExpenseResponse](t, rec).Gasto.Roommate)

	for _, r := range env.srv.roommates.List() {
		if r.Nombre == "Luis" {
			assert.Equal(t, 50.0, r.Debe)
		}
	}
}

func TestUpdateExpenseErrors(t *testing.T) {
	env := newTestEnv(t, "Ana")
	created := decode[createdExpenseResponse](t,
		env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"gas","monto":15}`))

	rec := env.do(t, http.MethodPut, "/gasto/missing", `{"monto":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgExpenseNotFound, decode[messageBody](t, rec).Message)

	rec = env.do(t, http.MethodPut, "/gasto/"+created.ID, `{"monto":"mucho"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/gasto/"+created.ID, `{"descripcion":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t, "Ana")
	created := decode[createdExpenseResponse](t,
		env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"wifi","monto":25}`))

	rec := env.do(t, http.MethodDelete, "/gasto?id="+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgExpenseDeleted, decode[messageBody](t, rec).Message)
	assert.Empty(t, env.srv.expenses.List())
}

func TestDeleteUnknownExpenseDoesNotWrite(t *testing.T) {
	env := newTestEnv(t, "Ana")
	writes := env.store.Writes()

	for _, path := range []string{"/gasto?id=nope", "/gasto"} {
		rec := env.do(t, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, MsgExpenseNotFound, decode[messageBody](t, rec).Message)
	}
	assert.Equal(t, writes, env.store.Writes())
}

func TestReadsNeverWrite(t *testing.T) {
	env := newTestEnv(t, "Ana", "Luis")
	env.do(t, http.MethodPost, "/gasto", `{"roommate":"Ana","descripcion":"x","monto":5}`)
	writes := env.store.Writes()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/gastos", "").Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/roommates", "").Code)
	}
	assert.Equal(t, writes, env.store.Writes())
}

func TestCreateRoommate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/roommate", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rm := decode[core.Roommate](t, rec)
	assert.NotEmpty(t, rm.ID)
	assert.Equal(t, "Random User", rm.Nombre)
	assert.Equal(t, "random@example.com", rm.Email)

	rec = env.do(t, http.MethodPost, "/roommate", `{"nombre":"Pablo","email":"pablo@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Pablo", decode[core.Roommate](t, rec).Nombre)

	rec = env.do(t, http.MethodPost, "/roommate", `{"nombre":"Sin Correo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgMissingEmail, decode[messageBody](t, rec).Message)

	list := decode[roommatesResponse](t, env.do(t, http.MethodGet, "/roommates", ""))
	assert.Len(t, list.Roommates, 2)
}

func TestEmptyCollectionsEncodeAsArrays(t *testing.T) {
	env := newTestEnv(t)

	assert.JSONEq(t, `{"roommates":[]}`, env.do(t, http.MethodGet, "/roommates", "").Body.String())
	assert.JSONEq(t, `{"gastos":[]}`, env.do(t, http.MethodGet, "/gastos", "").Body.String())
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env.srv.readyChecks["queue"] = failingPinger{}
	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roommates_http_response_time_seconds")
}

func TestServesFrontendWithSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gastosHistorial")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/js/script.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitReturnsJSON(t *testing.T) {
	env := newTestEnv(t, "Ana")
	limited := NewServer(Config{RateLimitPerMinute: 1}, env.srv.expenses, env.srv.roommates)
	t.Cleanup(func() { _ = limited.Shutdown(context.Background()) })

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		limited.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/gasto?id=x", nil))
		return rec
	}
	assert.Equal(t, http.StatusNotFound, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, MsgRateLimited, decode[messageBody](t, rec).Message)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
