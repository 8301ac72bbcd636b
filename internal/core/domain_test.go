package core

import (
	"errors"
	"testing"
)

func strp(s string) *string     { return &s }
func floatp(f float64) *float64 { return &f }

func TestExpenseInputValidate(t *testing.T) {
	cases := []struct {
		name string
		in   ExpenseInput
		ok   bool
	}{
		{"complete", ExpenseInput{Roommate: strp("Ana"), Descripcion: strp("rent"), Monto: floatp(300)}, true},
		{"by id", ExpenseInput{RoommateID: strp("r1"), Descripcion: strp("rent"), Monto: floatp(300)}, true},
		{"zero amount", ExpenseInput{Roommate: strp("Ana"), Descripcion: strp("gift"), Monto: floatp(0)}, true},
		{"negative amount", ExpenseInput{Roommate: strp("Ana"), Descripcion: strp("refund"), Monto: floatp(-20)}, true},
		{"missing descripcion", ExpenseInput{Roommate: strp("Ana"), Monto: floatp(300)}, false},
		{"blank descripcion", ExpenseInput{Roommate: strp("Ana"), Descripcion: strp("  "), Monto: floatp(300)}, false},
		{"missing roommate", ExpenseInput{Descripcion: strp("rent"), Monto: floatp(300)}, false},
		{"missing monto", ExpenseInput{Roommate: strp("Ana"), Descripcion: strp("rent")}, false},
	}
	for _, tc := range cases {
		err := tc.in.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: expected ok, got %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			if !errors.Is(err, ErrInvalidExpense) {
				t.Fatalf("%s: expected ErrInvalidExpense, got %v", tc.name, err)
			}
		}
	}
}

func TestExpenseInputPartial(t *testing.T) {
	if err := (ExpenseInput{Monto: floatp(5)}).ValidatePartial(); err != nil {
		t.Fatalf("amount-only update should be valid: %v", err)
	}
	if err := (ExpenseInput{Descripcion: strp("")}).ValidatePartial(); err == nil {
		t.Fatalf("expected error for empty descripcion")
	}

	old := Expense{ID: "g1", Roommate: "Ana", Descripcion: "rent", Monto: 300}
	got := ExpenseInput{Monto: floatp(250)}.Apply(old)
	if got.Descripcion != "rent" || got.Monto != 250 || got.ID != "g1" {
		t.Fatalf("unexpected merge result: %+v", got)
	}
}

func TestFindRoommate(t *testing.T) {
	rs := []Roommate{
		{ID: "1", Nombre: "Ana"},
		{ID: "2", Nombre: "Luis"},
		{ID: "3", Nombre: "Ana"},
	}
	if i, ok := FindRoommate(rs, "", "Ana"); !ok || i != 0 {
		t.Fatalf("expected first Ana, got %d %v", i, ok)
	}
	if i, ok := FindRoommate(rs, "3", "Ana"); !ok || i != 2 {
		t.Fatalf("expected id match to win, got %d %v", i, ok)
	}
	if _, ok := FindRoommate(rs, "9", "Ana"); ok {
		t.Fatalf("unknown id must not fall back to name")
	}
	if _, ok := FindRoommate(rs, "", "Pedro"); ok {
		t.Fatalf("expected no match")
	}
}

func TestIdentityValidate(t *testing.T) {
	if err := (Identity{Nombre: "Ana"}).Validate(); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
	if err := (Identity{Nombre: "Ana", Email: "ana@example.com"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestEmails(t *testing.T) {
	got := Emails([]Roommate{{Email: "a@x.io"}, {Email: ""}, {Email: " b@x.io "}})
	if len(got) != 2 || got[0] != "a@x.io" || got[1] != "b@x.io" {
		t.Fatalf("unexpected emails: %v", got)
	}
}
