package core

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Roommate is a household member. Debe and Recibe are derived by Recalculate
	// and are never taken from client input.
	Roommate struct {
		ID     string  `json:"id"`
		Nombre string  `json:"nombre"`
		Email  string  `json:"email"`
		Debe   float64 `json:"debe"`
		Recibe float64 `json:"recibe"`
	}

	// Expense is a shared cost (gasto) attributed to one roommate.
	Expense struct {
		ID          string  `json:"id"`
		Roommate    string  `json:"roommate"`
		RoommateID  string  `json:"roommateId,omitempty"`
		Descripcion string  `json:"descripcion"`
		Monto       float64 `json:"monto"`
	}

	// ExpenseInput carries the client-writable fields of an expense. Nil fields are
	// treated as absent so that updates can be partial.
	ExpenseInput struct {
		Roommate    *string  `json:"roommate"`
		RoommateID  *string  `json:"roommateId"`
		Descripcion *string  `json:"descripcion"`
		Monto       *float64 `json:"monto"`
	}

	// Identity is a name/email pair used to register a new roommate.
	Identity struct {
		Nombre string `json:"nombre"`
		Email  string `json:"email"`
	}

	// NotificationResult reports the outcome of the new-expense email.
	NotificationResult struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	// Snapshot is the full persisted state.
	Snapshot struct {
		Roommates []Roommate
		Expenses  []Expense
	}
)

var (
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrUnknownRoommate = errors.New("unknown roommate")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrMissingEmail    = errors.New("roommate email missing")
	ErrNoRoommates     = errors.New("no roommates to split between")
)

// Validate checks that a create request carries every field.
func (in ExpenseInput) Validate() error {
	var missing []string
	if (in.Roommate == nil || strings.TrimSpace(*in.Roommate) == "") &&
		(in.RoommateID == nil || strings.TrimSpace(*in.RoommateID) == "") {
		missing = append(missing, "roommate")
	}
	if in.Descripcion == nil || strings.TrimSpace(*in.Descripcion) == "" {
		missing = append(missing, "descripcion")
	}
	if in.Monto == nil {
		missing = append(missing, "monto")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidExpense, strings.Join(missing, ", "))
	}
	return nil
}

// ValidatePartial checks only the fields present in an update request.
func (in ExpenseInput) ValidatePartial() error {
	if in.Roommate != nil && strings.TrimSpace(*in.Roommate) == "" &&
		(in.RoommateID == nil || strings.TrimSpace(*in.RoommateID) == "") {
		return fmt.Errorf("%w: empty roommate", ErrInvalidExpense)
	}
	if in.Descripcion != nil && strings.TrimSpace(*in.Descripcion) == "" {
		return fmt.Errorf("%w: empty descripcion", ErrInvalidExpense)
	}
	return nil
}

// Apply merges the present fields of in into e. The roommate reference is
// resolved separately by the cache.
func (in ExpenseInput) Apply(e Expense) Expense {
	if in.Descripcion != nil {
		e.Descripcion = strings.TrimSpace(*in.Descripcion)
	}
	if in.Monto != nil {
		e.Monto = *in.Monto
	}
	return e
}

// RoommateRef returns the id and name the input refers to, if any.
func (in ExpenseInput) RoommateRef() (id, name string, ok bool) {
	if in.RoommateID != nil {
		id = strings.TrimSpace(*in.RoommateID)
	}
	if in.Roommate != nil {
		name = strings.TrimSpace(*in.Roommate)
	}
	return id, name, id != "" || name != ""
}

// Validate checks that an identity can be registered as a roommate.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}

// FindRoommate resolves a reference by id first, then by the first exact name match.
func FindRoommate(roommates []Roommate, id, name string) (int, bool) {
	if id != "" {
		for i, r := range roommates {
			if r.ID == id {
				return i, true
			}
		}
		return -1, false
	}
	for i, r := range roommates {
		if r.Nombre == name {
			return i, true
		}
	}
	return -1, false
}

// Emails returns the non-empty roommate addresses in collection order.
func Emails(roommates []Roommate) []string {
	out := make([]string, 0, len(roommates))
	for _, r := range roommates {
		if e := strings.TrimSpace(r.Email); e != "" {
			out = append(out, e)
		}
	}
	return out
}
