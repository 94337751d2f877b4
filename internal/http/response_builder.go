// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every API response shares one envelope: {"success":true,"data":...} or
// {"success":false,"error":"..."}.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"cofre/internal/core"
	"cofre/internal/log"
	"cofre/internal/middleware/auth"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ResponseBuilder provides a fluent API for building enveloped JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header sets a custom header on the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data marks the response successful and sets its payload.
func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.body = envelope{Success: true, Data: data}
	return b
}

// Error marks the response failed with a client-facing message.
func (b *ResponseBuilder) Error(message string) *ResponseBuilder {
	b.body = envelope{Success: false, Error: message}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// OK creates a 200 response carrying data.
func OK(data any) *ResponseBuilder {
	return NewResponse().Data(data)
}

// Created creates a 201 response carrying data.
func Created(data any) *ResponseBuilder {
	return NewResponse().Status(http.StatusCreated).Data(data)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Error(message)
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response; Retry-After is set by the limiter.
func TooManyRequestsError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError() *ResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed")
}

// ErrorFor maps a service error to its response. Store and other unexpected
// failures are logged and reported with a generic message.
func ErrorFor(r *http.Request, err error) *ResponseBuilder {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, core.ErrInvalidCredentials):
		return UnauthorizedError("invalid email or password")
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return UnauthorizedError("authentication required")
	case core.IsValidation(err), core.IsDomain(err):
		return BadRequestError(userMessage(err))
	}

	ctx := r.Context()
	log.FromContext(ctx).ErrorContext(ctx, "Request failed",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldError, err.Error(),
		log.FieldErrorType, log.ErrorTypeInternal)
	return InternalServerError("internal server error")
}

// userMessage unwraps to the typed error so context added with %w is not
// shown to clients.
func userMessage(err error) string {
	var v *core.ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	var d *core.DomainError
	if errors.As(err, &d) {
		return d.Error()
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ErrorFor(r, err).Write(w)
}
