package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"roommates/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// errEmptyBody is returned by RequestBodyParser.Decode for a request without a body.
var errEmptyBody = errors.New("empty request body")

// RequestBodyParser reads a JSON request body once and decodes it on demand.
type RequestBodyParser struct {
	body []byte
	err  error
}

// NewRequestBodyParser reads up to maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Empty reports whether the body held nothing but whitespace.
func (p *RequestBodyParser) Empty() bool {
	return p.err == nil && len(bytes.TrimSpace(p.body)) == 0
}

// Decode unmarshals the body into dst. Syntax and type errors are reported as
// invalid expense data so they map to a 400.
func (p *RequestBodyParser) Decode(dst any) error {
	if p.err != nil {
		return fmt.Errorf("%w: read body: %v", core.ErrInvalidExpense, p.err)
	}
	if p.Empty() {
		return fmt.Errorf("%w: %v", core.ErrInvalidExpense, errEmptyBody)
	}
	if err := json.Unmarshal(p.body, dst); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidExpense, err)
	}
	return nil
}

// ParseExpenseInput decodes an expense create or update body.
func ParseExpenseInput(w http.ResponseWriter, r *http.Request) (core.ExpenseInput, error) {
	var in core.ExpenseInput
	if err := NewRequestBodyParser(w, r).Decode(&in); err != nil {
		return core.ExpenseInput{}, err
	}
	return in, nil
}

// ParseIdentity decodes the optional roommate body. A missing body, or one
// carrying neither field, returns nil so the identity gets generated.
func ParseIdentity(w http.ResponseWriter, r *http.Request) (*core.Identity, error) {
	p := NewRequestBodyParser(w, r)
	if p.Empty() {
		return nil, nil
	}
	var id core.Identity
	if err := p.Decode(&id); err != nil {
		return nil, err
	}
	id.Nombre = strings.TrimSpace(id.Nombre)
	id.Email = strings.TrimSpace(id.Email)
	if id.Nombre == "" && id.Email == "" {
		return nil, nil
	}
	return &id, nil
}

// RequireQuery returns the trimmed query parameter or false when it is absent.
func RequireQuery(r *http.Request, key string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	return v, v != ""
}
