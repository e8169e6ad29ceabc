// Package response builds the uniform response envelopes returned by every handler.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vocali/transcription-api/internal/apperr"
)

// Fixed CORS values shared by every route.
const (
	AllowOrigin  = "*"
	AllowHeaders = "Content-Type,Authorization"
)

// DefaultMethods is used when a builder is created without route verbs.
var DefaultMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
}

// APIResponse is the envelope handed back to the transport adapter.
type APIResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Body is the JSON shape shared by success and error responses.
type Body struct {
	Message string             `json:"message"`
	Data    any                `json:"data,omitempty"`
	Errors  []apperr.Violation `json:"errors,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Builder produces envelopes for a single route. It holds no mutable state.
type Builder struct {
	methods string
}

// For returns a Builder whose Access-Control-Allow-Methods lists methods plus OPTIONS.
func For(methods ...string) Builder {
	if len(methods) == 0 {
		return Builder{methods: strings.Join(DefaultMethods, ",")}
	}

	verbs := make([]string, 0, len(methods)+1)
	hasOptions := false
	for _, m := range methods {
		m = strings.ToUpper(m)
		if m == http.MethodOptions {
			hasOptions = true
		}
		verbs = append(verbs, m)
	}
	if !hasOptions {
		verbs = append(verbs, http.MethodOptions)
	}
	return Builder{methods: strings.Join(verbs, ",")}
}

// Methods returns the Access-Control-Allow-Methods value.
func (b Builder) Methods() string {
	if b.methods == "" {
		return strings.Join(DefaultMethods, ",")
	}
	return b.methods
}

// Headers returns a fresh header map for one response.
func (b Builder) Headers(contentType string) map[string]string {
	h := map[string]string{
		"Access-Control-Allow-Origin":  AllowOrigin,
		"Access-Control-Allow-Headers": AllowHeaders,
		"Access-Control-Allow-Methods": b.Methods(),
	}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

// JSON serializes v as the response body.
func (b Builder) JSON(status int, v any) APIResponse {
	payload, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unsupported values; fall back to a fixed body.
		return APIResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    b.Headers("application/json"),
			Body:       `{"message":"Internal Server Error"}`,
		}
	}
	return APIResponse{
		StatusCode: status,
		Headers:    b.Headers("application/json"),
		Body:       string(payload),
	}
}

// Success returns 200 with {message, data}.
func (b Builder) Success(data any, message string) APIResponse {
	return b.JSON(http.StatusOK, Body{Message: orDefault(message, "Success"), Data: data})
}

// Created returns 201 with {message, data}.
func (b Builder) Created(data any, message string) APIResponse {
	return b.JSON(http.StatusCreated, Body{Message: orDefault(message, "Created"), Data: data})
}

// Error returns status with {message, errors}. errors is omitted when empty.
func (b Builder) Error(status int, message string, errs []apperr.Violation) APIResponse {
	return b.JSON(status, Body{Message: message, Errors: errs})
}

// ValidationError returns 400.
func (b Builder) ValidationError(errs []apperr.Violation, message string) APIResponse {
	return b.Error(http.StatusBadRequest, orDefault(message, "Validation Error"), errs)
}

// Unauthorized returns 401.
func (b Builder) Unauthorized(message string) APIResponse {
	return b.Error(http.StatusUnauthorized, orDefault(message, "Unauthorized"), nil)
}

// NotFound returns 404.
func (b Builder) NotFound(message string) APIResponse {
	return b.Error(http.StatusNotFound, orDefault(message, "Not Found"), nil)
}

// Conflict returns 409.
func (b Builder) Conflict(message string) APIResponse {
	return b.Error(http.StatusConflict, orDefault(message, "Conflict"), nil)
}

// InternalServerError returns 500.
func (b Builder) InternalServerError(message string) APIResponse {
	return b.Error(http.StatusInternalServerError, orDefault(message, "Internal Server Error"), nil)
}

// File returns a plain-text attachment.
func (b Builder) File(filename, content string) APIResponse {
	h := b.Headers("text/plain; charset=utf-8")
	h["Content-Disposition"] = fmt.Sprintf("attachment; filename=%q", filename)
	h["Cache-Control"] = "no-cache"
	return APIResponse{StatusCode: http.StatusOK, Headers: h, Body: content}
}

// Empty returns status with no body, used for preflight requests.
func (b Builder) Empty(status int) APIResponse {
	return APIResponse{StatusCode: status, Headers: b.Headers(""), Body: ""}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
