// Package http provides HTTP server and handler implementations.
//
// This file implements the builder used for every JSON response and the single
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/confirm"
	"ledger/internal/core"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/report"
	"ledger/internal/storage"
	"ledger/internal/workspace"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
	cookies    []*http.Cookie
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

// Cookie attaches a cookie to the response.
func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates an error response with the given status.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// statusFor maps a command error to its HTTP status.
func statusFor(err error) int {
	switch {
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case auth.IsAuthError(err),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrCustomerNotFound),
		errors.Is(err, ledger.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrNoActiveCustomer),
		errors.Is(err, confirm.ErrNoPendingConfirmation):
		return http.StatusConflict
	default:
		// export and persistence failures included
		return http.StatusInternalServerError
	}
}

// ErrorFrom builds the response for err. Validation errors name the field;
// auth errors surface the gateway message as is.
func ErrorFrom(err error) *JSONResponseBuilder {
	body := ErrorBody{Error: err.Error()}

	var ve *core.ValidationError
	var ae *auth.AuthError
	switch {
	case errors.As(err, &ve):
		body = ErrorBody{Error: ve.Err.Error(), Field: ve.Field}
	case errors.As(err, &ae):
		body.Error = ae.Message
	case storage.IsPersistenceError(err):
		body.Error = "The change was applied but could not be saved: " + err.Error()
	case report.IsExportError(err):
		body.Error = "Failed to export PDF: " + err.Error()
	}
	return NewJSONResponse().Status(statusFor(err)).Body(body)
}
