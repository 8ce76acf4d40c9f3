// internal/form/validate.go
//
// Forms subsystem: server-side validation.
//
// Context
//   The renderer outputs HTML containing a CSRF token and a render
//   timestamp.  When the browser posts user input, this file verifies the
//   submission: CSRF, optional timing, required fields, type constraints,
//   regex patterns, option values, and length limits.  It returns a trimmed
//   map that handlers can trust.
//
// Notes
//   •  Values are NOT HTML-escaped here.  Output escaping is the job of
//      html/template at render time; escaping on input would double-encode
//      business names such as "Smith & Sons" when they are stored and later
//      rendered.
//   •  Errors are captured in []ErrorField so templates can highlight the
//      exact field.  An empty Name marks a form-level error.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxFormAge bounds how long a rendered form stays submittable.
const maxFormAge = 2 * time.Hour

// ErrorField describes a single validation failure so the template can render
// a field-level message.
type ErrorField struct {
	Name    string // field name, empty for form-level errors
	Message string // user-facing message
}

// ValidateForm validates posted form data for formID.  It returns clean values
// and any field errors.  A non-empty error slice means the page must be
// re-rendered.
func ValidateForm(formID string, posted url.Values) (map[string]any, []ErrorField) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, []ErrorField{{Name: "", Message: "Unknown form."}}
	}

	if !VerifyToken(posted.Get("csrf_token")) {
		return nil, []ErrorField{{"", "Security token invalid.  Please refresh and try again."}}
	}
	if fd.MinFillSeconds > 0 {
		min := time.Duration(fd.MinFillSeconds) * time.Second
		if msg := checkTiming(posted.Get("render_ts"), min, time.Now()); msg != "" {
			return nil, []ErrorField{{"", msg}}
		}
	}

	var errs []ErrorField
	clean := make(map[string]any, len(fd.Fields))

	for i := range fd.Fields {
		f := &fd.Fields[i]
		raw, present := extractValue(posted, f)

		if f.Type == "checkbox" {
			clean[f.Name] = present && raw != "" && raw != "false"
			if f.Required && !clean[f.Name].(bool) {
				errs = append(errs, ErrorField{f.Name, requiredMsg(f)})
			}
			continue
		}

		if f.Required && !present {
			errs = append(errs, ErrorField{f.Name, requiredMsg(f)})
			continue
		}
		if !present {
			continue
		}

		val, msg := validateValue(f, raw)
		if msg != "" {
			errs = append(errs, ErrorField{f.Name, msg})
			continue
		}
		clean[f.Name] = val
	}

	return clean, errs
}

// checkTiming rejects submissions faster than min or older than maxFormAge.
// Returns an empty string on success.
func checkTiming(tsRaw string, min time.Duration, now time.Time) string {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page."
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please retry."
	}
	delta := now.Sub(time.UnixMicro(ts))
	switch {
	case delta < min:
		return "Form submitted too quickly.  Please enter the fields manually."
	case delta > maxFormAge:
		return "Form expired.  Please reload and submit again."
	default:
		return ""
	}
}

// extractValue returns the trimmed submitted value.  Blank input counts as
// absent so "required" catches whitespace-only answers.  Passwords are
// returned untouched.
func extractValue(v url.Values, f *FieldDef) (string, bool) {
	raw, ok := v[f.Name]
	if !ok || len(raw) == 0 {
		return "", false
	}
	if f.Type == "password" {
		return raw[0], raw[0] != ""
	}
	s := strings.TrimSpace(raw[0])
	return s, s != ""
}

func validateValue(f *FieldDef, val string) (any, string) {
	if msg := lengthCheck(f, val); msg != "" {
		return nil, msg
	}

	switch f.Type {
	case "text", "textarea":
		if f.re != nil && !f.re.MatchString(val) {
			return nil, patternMsg(f)
		}
		return val, ""

	case "email":
		addr, err := mail.ParseAddress(val)
		if err != nil || addr.Address != val {
			return nil, invalidMsg(f)
		}
		return val, ""

	case "password":
		return val, ""

	case "number":
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			return nil, invalidMsg(f)
		}
		return val, ""

	case "select":
		for _, o := range f.Options {
			if o == val {
				return val, ""
			}
		}
		return nil, invalidMsg(f)

	default:
		return nil, fmt.Sprintf("Unsupported field type %q.", f.Type)
	}
}

// lengthCheck validates minlength / maxlength rules in characters.
func lengthCheck(f *FieldDef, s string) string {
	n := utf8.RuneCountInString(s)
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("Must be at least %d characters.", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("Must be at most %d characters.", f.MaxLength)
	}
	return ""
}

func requiredMsg(f *FieldDef) string {
	return fmt.Sprintf("%s is required.", f.Label)
}

func invalidMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Invalid input."
}

func patternMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Input does not match required format."
}
