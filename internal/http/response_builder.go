// Package http provides the REST server and its handlers.
//
// This file implements the Builder Pattern for JSON responses and the single
// place where domain errors become status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"roommates/internal/core"
	"roommates/internal/log"
)

// Client-facing messages.
const (
	MsgInvalidData      = "Datos inválidos"
	MsgUnknownRoommate  = "Roommate no encontrado"
	MsgExpenseNotFound  = "Gasto no encontrado"
	MsgMissingEmail     = "Falta el campo email en los datos del roommate"
	MsgExpenseUpdated   = "Gasto actualizado correctamente"
	MsgExpenseDeleted   = "Gasto eliminado correctamente"
	MsgCreateFailed     = "Error al añadir gasto"
	MsgUpdateFailed     = "Error al actualizar el gasto"
	MsgDeleteFailed     = "Error al eliminar el gasto"
	MsgReadExpenses     = "Error al leer gastos"
	MsgReadRoommates    = "Error al leer roommates"
	MsgAddRoommate      = "Error al añadir roommate"
	MsgRateLimited      = "Demasiadas solicitudes. Inténtalo de nuevo más tarde."
	MsgMethodNotAllowed = "Método no permitido"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Message sets a {"message": ...} body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(messageBody{Message: msg})
}

// StatusCode returns the configured status code.
func (b *JSONResponseBuilder) StatusCode() int {
	return b.statusCode
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	if b.body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response body",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldError, err)
	}
}

type messageBody struct {
	Message string `json:"message"`
}

// ErrorResponse creates a response carrying only a message.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Message(message)
}

// BadRequestError creates a 400 response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ErrorFor classifies err. Validation errors become 400, a missing expense
// 404, and anything else a 500 with the given fallback message.
func ErrorFor(err error, fallback string) *JSONResponseBuilder {
	switch {
	case errors.Is(err, core.ErrInvalidExpense):
		return BadRequestError(MsgInvalidData)
	case errors.Is(err, core.ErrUnknownRoommate):
		return BadRequestError(MsgUnknownRoommate)
	case errors.Is(err, core.ErrMissingEmail):
		return BadRequestError(MsgMissingEmail)
	case errors.Is(err, core.ErrExpenseNotFound):
		return NotFoundError(MsgExpenseNotFound)
	default:
		return InternalServerError(fallback)
	}
}

// writeError logs err on the request logger and writes its classified
// response.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback, operation string) {
	resp := ErrorFor(err, fallback)
	logger := log.FromContext(r.Context())
	if resp.StatusCode() >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, operation,
			log.FieldError, err,
			log.FieldStatusCode, resp.StatusCode())
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldOperation, operation,
			log.FieldError, err,
			log.FieldStatusCode, resp.StatusCode())
	}
	resp.Write(w)
}
