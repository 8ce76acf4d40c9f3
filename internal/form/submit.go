// internal/form/submit.go
//
// Forms subsystem: consolidated Submit helper.
//
// Context
//   Most handlers want one call that parses the POST body, validates input,
//   and returns the clean map or a validation error.  HandleSubmit provides
//   that so component code stays terse.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yanizio/sitecraft/internal/apperr"
)

// ValidationError wraps []ErrorField.  It unwraps to apperr.ErrValidation so
// HTTP layers map it to 400 without knowing about forms.
type ValidationError struct{ Fields []ErrorField }

func (ve ValidationError) Error() string {
	msgs := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		msgs = append(msgs, f.Message)
	}
	return "form validation failed: " + strings.Join(msgs, " ")
}

func (ve ValidationError) Unwrap() error { return apperr.ErrValidation }

// HandleSubmit parses r, validates against formID, and returns the clean
// data.  On validation failure it returns a ValidationError.
func HandleSubmit(formID string, r *http.Request) (map[string]any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	clean, errs := ValidateForm(formID, r.PostForm)
	if len(errs) > 0 {
		return nil, ValidationError{Fields: errs}
	}
	return clean, nil
}

// FieldErrors returns the field errors carried by err, or nil.
func FieldErrors(err error) []ErrorField {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// IsValidationError reports whether err came from a failed ValidateForm.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// String returns clean[name] as a string, or "" when absent.
func String(clean map[string]any, name string) string {
	s, _ := clean[name].(string)
	return s
}

// Bool returns clean[name] as a bool, false when absent.
func Bool(clean map[string]any, name string) bool {
	b, _ := clean[name].(bool)
	return b
}

// Prefill converts posted values back into renderer prefill input.
func Prefill(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 && k != "csrf_token" && k != "render_ts" {
			out[k] = v[0]
		}
	}
	return out
}
