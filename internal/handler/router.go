package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"

	"github.com/vocali/transcription-api/internal/response"
)

// DefaultMaxBodyBytes bounds request bodies read by the HTTP adapter.
const DefaultMaxBodyBytes int64 = 15 << 20

// Route binds a handler to a path template such as /transcriptions/{transcriptionId}.
type Route struct {
	Path    string
	Handler Handler
}

// Router dispatches requests to handlers for both the HTTP server and Lambda.
type Router struct {
	base         Base
	routes       []Route
	maxBodyBytes int64
}

// NewRouter creates a Router over routes.
func NewRouter(base Base, routes ...Route) *Router {
	return &Router{base: base.withDefaults(), routes: routes, maxBodyBytes: DefaultMaxBodyBytes}
}

// SetMaxBodyBytes overrides the HTTP body limit. Non-positive values are ignored.
func (rt *Router) SetMaxBodyBytes(n int64) {
	if n > 0 {
		rt.maxBodyBytes = n
	}
}

// Routes returns the registered routes.
func (rt *Router) Routes() []Route {
	return rt.routes
}

// Dispatch finds the handler for req and runs it through Handle.
// OPTIONS on a known path answers the preflight directly.
func (rt *Router) Dispatch(ctx context.Context, req Request) response.APIResponse {
	if req.Stage == "" {
		req.Stage = rt.base.Stage
	}

	// Resources that are not route templates, such as /{proxy+}, resolve by path.
	template := req.Resource
	methods := rt.methodsFor(template)
	if len(methods) == 0 {
		var params map[string]string
		template, params = rt.matchPath(req.Path)
		methods = rt.methodsFor(template)
		req.PathParameters = params
	}
	if len(methods) == 0 {
		return response.For().NotFound("")
	}

	if req.Method == http.MethodOptions {
		return response.For(methods...).Empty(http.StatusOK)
	}

	for _, r := range rt.routes {
		if r.Path != template {
			continue
		}
		for _, m := range r.Handler.Methods() {
			if m == req.Method {
				return Handle(ctx, rt.base, r.Handler, req)
			}
		}
	}
	return response.For(methods...).Error(http.StatusMethodNotAllowed, "Method Not Allowed", nil)
}

// ServeLambda adapts an API Gateway proxy event.
func (rt *Router) ServeLambda(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			resp := response.For().Error(http.StatusBadRequest, "Invalid request body encoding", nil)
			return toProxyResponse(resp), nil
		}
		body = string(decoded)
	}

	resp := rt.Dispatch(ctx, Request{
		Method:                strings.ToUpper(event.HTTPMethod),
		Path:                  event.Path,
		Resource:              event.Resource,
		Stage:                 event.RequestContext.Stage,
		Body:                  body,
		PathParameters:        event.PathParameters,
		QueryStringParameters: event.QueryStringParameters,
		Headers:               event.Headers,
	})
	return toProxyResponse(resp), nil
}

func toProxyResponse(resp response.APIResponse) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

// Mount registers every route, and its preflight, on r.
func (rt *Router) Mount(r chi.Router) {
	seen := make(map[string]bool)
	for _, route := range rt.routes {
		for _, m := range route.Handler.Methods() {
			r.Method(m, route.Path, rt.httpHandler(route.Path))
		}
		if !seen[route.Path] {
			seen[route.Path] = true
			r.Options(route.Path, rt.httpHandler(route.Path))
		}
	}
}

// NotFound writes the 404 envelope.
func (rt *Router) NotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIResponse(w, response.For().NotFound(""))
}

// MethodNotAllowed writes the 405 envelope.
func (rt *Router) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIResponse(w, response.For().Error(http.StatusMethodNotAllowed, "Method Not Allowed", nil))
}

func (rt *Router) httpHandler(template string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rt.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeAPIResponse(w, response.For().Error(http.StatusRequestEntityTooLarge, "Request body too large", nil))
				return
			}
			writeAPIResponse(w, response.For().Error(http.StatusBadRequest, "Unable to read request body", nil))
			return
		}

		params := make(map[string]string)
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if key == "*" {
					continue
				}
				params[key] = rctx.URLParams.Values[i]
			}
		}

		resp := rt.Dispatch(r.Context(), Request{
			Method:                r.Method,
			Path:                  r.URL.Path,
			Resource:              template,
			Body:                  string(body),
			PathParameters:        params,
			QueryStringParameters: firstValues(r.URL.Query()),
			Headers:               firstValues(r.Header),
		})
		writeAPIResponse(w, resp)
	}
}

func (rt *Router) methodsFor(template string) []string {
	var methods []string
	for _, r := range rt.routes {
		if r.Path == template {
			methods = append(methods, r.Handler.Methods()...)
		}
	}
	return methods
}

// matchPath resolves a concrete path against the route templates.
func (rt *Router) matchPath(path string) (string, map[string]string) {
	segments := splitSegments(path)
	for _, r := range rt.routes {
		tmpl := splitSegments(r.Path)
		if len(tmpl) != len(segments) {
			continue
		}
		params := make(map[string]string)
		ok := true
		for i, t := range tmpl {
			if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
				params[t[1:len(t)-1]] = segments[i]
				continue
			}
			if t != segments[i] {
				ok = false
				break
			}
		}
		if ok {
			return r.Path, params
		}
	}
	return "", nil
}

func splitSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func firstValues[M ~map[string][]string](values M) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func writeAPIResponse(w http.ResponseWriter, resp response.APIResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = io.WriteString(w, resp.Body)
	}
}
