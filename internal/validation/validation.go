// Package validation checks decoded request input with go-playground/validator
// and reports every failed rule as an apperr.Violation.
package validation

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vocali/transcription-api/internal/apperr"
)

// validate is safe for concurrent use and caches per-tag parsing.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Rule pairs a validator tag with the message reported when it fails.
type Rule struct {
	Tag     string
	Message string
}

// Field evaluates every rule against value and returns one violation per failure.
func Field(path string, value any, rules ...Rule) []apperr.Violation {
	var out []apperr.Violation
	for _, r := range rules {
		if err := validate.Var(value, r.Tag); err != nil {
			out = append(out, apperr.Violation{Message: r.Message, Path: splitPath(path)})
		}
	}
	return out
}

// Form returns a form-level violation which has no field path.
func Form(message string) apperr.Violation {
	return apperr.Violation{Message: message, Path: []string{}}
}

// Result turns collected violations into a validation error, or nil when there are none.
func Result(violations []apperr.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return apperr.Invalid(violations...)
}

// Validator is implemented by inputs that check themselves.
type Validator interface {
	Validate() error
}

// Defaulter is implemented by inputs with optional fields.
type Defaulter interface {
	ApplyDefaults()
}

// DecodeJSON decodes body into dst, applies defaults and validates.
// An empty body decodes as an empty object.
func DecodeJSON(body string, dst any) error {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}

	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return decodeError(err)
	}

	if d, ok := dst.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := dst.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		msg := "Expected " + jsonKind(typeErr.Type.Kind().String())
		if path == "" {
			return apperr.Invalid(Form("Expected object"))
		}
		return apperr.Invalid(apperr.Violation{Message: msg, Path: splitPath(path)})
	}
	return apperr.Invalid(Form("Invalid JSON body"))
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "struct", "map":
		return "object"
	case "slice", "array":
		return "array"
	case "ptr":
		return "value"
	default:
		return "number"
	}
}

func splitPath(path string) []string {
	if path == "" {
		return []string{}
	}
	return strings.Split(path, ".")
}
