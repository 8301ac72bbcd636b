package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"roommates/internal/core"
	"roommates/internal/log"
)

type roommatesResponse struct {
	Roommates []core.Roommate `json:"roommates"`
}

type expensesResponse struct {
	Gastos []core.Expense `json:"gastos"`
}

type createdExpenseResponse struct {
	core.Expense
	CorreoResultado core.NotificationResult `json:"correoResultado"`
}

type updatedExpenseResponse struct {
	Message string       `json:"message"`
	Gasto   core.Expense `json:"gasto"`
}

func (s *Server) handleListRoommates(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(roommatesResponse{Roommates: s.roommates.List()}).Write(w)
}

func (s *Server) handleCreateRoommate(w http.ResponseWriter, r *http.Request) {
	identity, err := ParseIdentity(w, r)
	if err != nil {
		writeError(w, r, err, MsgAddRoommate, log.OpCreate)
		return
	}

	rm, err := s.roommates.Create(r.Context(), identity)
	if err != nil {
		writeError(w, r, err, MsgAddRoommate, log.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(rm).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(expensesResponse{Gastos: s.expenses.List()}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := ParseExpenseInput(w, r)
	if err != nil {
		writeError(w, r, err, MsgCreateFailed, log.OpCreate)
		return
	}

	e, result, err := s.expenses.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, MsgCreateFailed, log.OpCreate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(createdExpenseResponse{Expense: e, CorreoResultado: result}).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, err := ParseExpenseInput(w, r)
	if err != nil {
		writeError(w, r, err, MsgUpdateFailed, log.OpUpdate)
		return
	}

	e, err := s.expenses.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err, MsgUpdateFailed, log.OpUpdate)
		return
	}
	NewJSONResponse().Body(updatedExpenseResponse{Message: MsgExpenseUpdated, Gasto: e}).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := RequireQuery(r, "id")
	if !ok {
		writeError(w, r, fmt.Errorf("delete gasto: %w", core.ErrExpenseNotFound), MsgDeleteFailed, log.OpDelete)
		return
	}

	if err := s.expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, MsgDeleteFailed, log.OpDelete)
		return
	}
	NewJSONResponse().Message(MsgExpenseDeleted).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.readyChecks))
	for name, p := range s.readyChecks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	if httpStatus != http.StatusOK {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "checks", checks)
	}
	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}
