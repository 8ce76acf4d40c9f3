// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef this file converts the definition into plain,
//   accessible HTML.  It applies HTML5 validation attributes, injects the
//   CSRF token and render timestamp, honours prefill values, and writes
//   server-side error messages next to the offending field.
//
// Workflow
//   •  RenderForm looks up the FormDef by ID and writes each field via
//      writeField.
//   •  Form-level errors (ErrorField.Name == "") are listed first inside
//      <ul class="form-errors">.
//   •  The caller receives template.HTML and wraps it in its own <form>
//      element, so the action URL stays with the page template.
//
// Style
//   Each input gets id="fld-{name}" and is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"time"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Prefill provides initial field values keyed by field name.
	Prefill map[string]string
	// Errors come from a failed ValidateForm and are shown inline.
	Errors []ErrorField
}

// RenderForm returns the HTML markup for the specified form ID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}

	byField := make(map[string]string, len(opts.Errors))
	var formErrs []string
	for _, e := range opts.Errors {
		if e.Name == "" {
			formErrs = append(formErrs, e.Message)
			continue
		}
		if _, seen := byField[e.Name]; !seen {
			byField[e.Name] = e.Message
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="sc-form" data-form="` + html.EscapeString(fd.ID) + `">` + "\n")

	if len(formErrs) > 0 {
		buf.WriteString(`<ul class="form-errors" role="alert">` + "\n")
		for _, m := range formErrs {
			buf.WriteString(`<li>` + html.EscapeString(m) + `</li>` + "\n")
		}
		buf.WriteString(`</ul>` + "\n")
	}

	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := writeField(&buf, f, opts.Prefill[f.Name], byField[f.Name]); err != nil {
			return "", err
		}
	}

	tok, err := GenerateToken()
	if err != nil {
		return "", fmt.Errorf("RenderForm: csrf token: %w", err)
	}
	buf.WriteString(`<input type="hidden" name="csrf_token" value="` + tok + `">` + "\n")
	buf.WriteString(`<input type="hidden" name="render_ts" value="` + strconv.FormatInt(time.Now().UnixMicro(), 10) + `">` + "\n")

	label := fd.Submit
	if label == "" {
		label = "Submit"
	}
	buf.WriteString(`<button type="submit">` + html.EscapeString(label) + `</button>` + "\n")

	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for one field, applying prefill, validation
// attributes, and an optional error message.
func writeField(buf *bytes.Buffer, f *FieldDef, val, errMsg string) error {
	class := "form-field"
	if errMsg != "" {
		class += " has-error"
	}
	buf.WriteString(`<div class="` + class + `">` + "\n")

	name := html.EscapeString(f.Name)
	idAttr := `id="fld-` + name + `"`
	nameAttr := `name="` + name + `"`

	buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	switch f.Type {
	case "text", "email", "password", "number":
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + f.Type + `"`)
		writeCommonAttrs(buf, f)
		if f.Pattern != "" {
			buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
		}
		if val != "" && f.Type != "password" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea ` + idAttr + ` ` + nameAttr)
		writeCommonAttrs(buf, f)
		if f.Rows > 0 {
			buf.WriteString(` rows="` + strconv.Itoa(f.Rows) + `"`)
		}
		buf.WriteString(`>` + html.EscapeString(val) + `</textarea>` + "\n")

	case "select":
		buf.WriteString(`<select ` + idAttr + ` ` + nameAttr)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")
		for _, opt := range f.Options {
			sel := ""
			if val == opt {
				sel = ` selected`
			}
			o := html.EscapeString(opt)
			buf.WriteString(`<option value="` + o + `"` + sel + `>` + o + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	case "checkbox":
		checked := ""
		if val == "true" || val == "on" || val == "1" {
			checked = ` checked`
		}
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="checkbox" value="true"` + checked + `>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	if f.Help != "" {
		buf.WriteString(`<small class="help">` + html.EscapeString(f.Help) + `</small>` + "\n")
	}
	buf.WriteString(`<span class="error" aria-live="polite">` + html.EscapeString(errMsg) + `</span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}

func writeCommonAttrs(buf *bytes.Buffer, f *FieldDef) {
	if f.Placeholder != "" {
		buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Required {
		buf.WriteString(` required`)
	}
	if f.MinLength > 0 {
		buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
}
