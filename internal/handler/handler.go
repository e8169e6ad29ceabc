// Package handler implements the request handlers and the lifecycle they share.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/metrics"
	"github.com/vocali/transcription-api/internal/response"
	"github.com/vocali/transcription-api/internal/validation"
)

// Request is the transport-neutral view of an inbound request.
type Request struct {
	Method                string
	Path                  string
	Resource              string
	Stage                 string
	Body                  string
	PathParameters        map[string]string
	QueryStringParameters map[string]string
	Headers               map[string]string
}

// Handler is one operation behind a route.
type Handler interface {
	// Name identifies the handler in logs and metrics.
	Name() string
	// Methods lists the HTTP verbs the route accepts.
	Methods() []string
	// ProcessEvent performs the operation. Errors are classified by Handle.
	ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error)
}

// Base carries what every handler invocation needs.
type Base struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	Now     func() time.Time
	// Stage is reported when the request carries none, as on the HTTP server.
	Stage string
}

func (b Base) withDefaults() Base {
	if b.Logger == nil {
		b.Logger = slog.Default()
	}
	if b.Metrics == nil {
		b.Metrics = metrics.NewNoop()
	}
	if b.Now == nil {
		b.Now = time.Now
	}
	return b
}

// Handle runs h for req and always returns a response. Errors and panics from
// ProcessEvent are converted into error envelopes.
func Handle(ctx context.Context, base Base, h Handler, req Request) (resp response.APIResponse) {
	base = base.withDefaults()
	logger := base.Logger.With("handler", h.Name())
	builder := response.For(h.Methods()...)
	start := base.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("handler panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			resp = builder.InternalServerError("")
		}
		base.Metrics.ObserveRequest(h.Name(), resp.StatusCode, base.Now().Sub(start))
	}()

	logger.Info(h.Name()+" handler invoked", "method", req.Method, "path", req.Path)

	resp, err := h.ProcessEvent(ctx, req)
	if err != nil {
		resp = ErrorResponse(builder, err)
		logError(logger, resp.StatusCode, err)
	}
	return resp
}

// ParseBody decodes the JSON body of req into dst, applies defaults and validates.
func ParseBody(req Request, dst any) error {
	return validation.DecodeJSON(req.Body, dst)
}

// ErrorResponse maps err onto an error envelope.
func ErrorResponse(b response.Builder, err error) response.APIResponse {
	ae, ok := apperr.As(err)
	if !ok {
		return b.InternalServerError("")
	}

	switch ae.Kind {
	case apperr.Validation:
		if len(ae.Violations) == 0 {
			return b.Error(http.StatusBadRequest, ae.Message, nil)
		}
		return b.ValidationError(ae.Violations, ae.Message)
	case apperr.Unauthorized:
		return b.Unauthorized(ae.Message)
	case apperr.NotFound:
		return b.NotFound(ae.Message)
	case apperr.Conflict:
		return b.Conflict(ae.Message)
	case apperr.Upstream:
		status := ae.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return b.JSON(status, response.Body{Message: ae.Message, Error: ae.Detail})
	case apperr.Misconfigured:
		return b.InternalServerError(ae.Message)
	default:
		return b.InternalServerError("")
	}
}

func logError(logger *slog.Logger, status int, err error) {
	attrs := []any{
		"status", status,
		"kind", apperr.KindOf(err).String(),
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		return
	}
	logger.Warn("request rejected", attrs...)
}
