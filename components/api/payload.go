// components/api/payload.go
//
// Request decoding, validation, and the record wire shape.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/site"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldError is a validation failure with per-field messages.
type fieldError struct {
	Fields map[string]string
}

func (e *fieldError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return "invalid " + strings.Join(names, ", ")
}

func (e *fieldError) Unwrap() error { return apperr.ErrValidation }

// check runs struct validation and converts the result into a fieldError.
func (c *Component) check(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate: %v: %w", err, apperr.ErrValidation)
	}
	fe := &fieldError{Fields: make(map[string]string, len(ves))}
	for _, e := range ves {
		fe.Fields[e.Field()] = describe(e)
	}
	return fe
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// decode reads a JSON body into dst and validates it.
func (c *Component) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := readJSON(r, dst); err != nil {
		return err
	}
	return c.check(dst)
}

func readJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty: %w", apperr.ErrValidation)
		}
		return fmt.Errorf("malformed JSON: %w", apperr.ErrValidation)
	}
	return nil
}

/*──────────────────────────── Website payloads ─────────────────────────────*/

// websiteBody is the create payload.  business_category is the older name
// for business_type and is only read when business_type is blank.
type websiteBody struct {
	BusinessName     string `json:"business_name"     validate:"required,max=100"`
	BusinessType     string `json:"business_type"     validate:"required,max=100"`
	BusinessCategory string `json:"business_category" validate:"-"`
	Industry         string `json:"industry"          validate:"required,max=100"`
	Location         string `json:"location"          validate:"required,max=100"`
	Description      string `json:"description"       validate:"required,max=2000"`
}

func (b *websiteBody) normalize() {
	for _, s := range []*string{&b.BusinessName, &b.BusinessType, &b.BusinessCategory, &b.Industry, &b.Location, &b.Description} {
		*s = strings.TrimSpace(*s)
	}
	if b.BusinessType == "" {
		b.BusinessType = b.BusinessCategory
	}
}

func (b websiteBody) request() content.Request {
	return content.Request{
		BusinessName: b.BusinessName,
		BusinessType: b.BusinessType,
		Industry:     b.Industry,
		Location:     b.Location,
		Description:  b.Description,
	}
}

func websiteFromForm(v url.Values) websiteBody {
	return websiteBody{
		BusinessName:     v.Get("business_name"),
		BusinessType:     v.Get("business_type"),
		BusinessCategory: v.Get("business_category"),
		Industry:         v.Get("industry"),
		Location:         v.Get("location"),
		Description:      v.Get("description"),
	}
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// decodeWebsite accepts JSON or a classic form post.
func (c *Component) decodeWebsite(w http.ResponseWriter, r *http.Request) (websiteBody, error) {
	var body websiteBody
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return body, fmt.Errorf("read form: %w", apperr.ErrValidation)
		}
		body = websiteFromForm(r.PostForm)
	} else if err := readJSON(r, &body); err != nil {
		return body, err
	}
	body.normalize()
	return body, c.check(&body)
}

// patchBody is the update payload.  Absent fields are left untouched.
// content may be a string (raw text or Document JSON) or an object (a bare
// Document or the {"kind": ...} envelope GET returns).
type patchBody struct {
	BusinessName     *string         `json:"business_name"     validate:"omitnil,min=1,max=100"`
	BusinessType     *string         `json:"business_type"     validate:"omitnil,min=1,max=100"`
	BusinessCategory *string         `json:"business_category" validate:"omitnil,min=1,max=100"`
	Industry         *string         `json:"industry"          validate:"omitnil,min=1,max=100"`
	Location         *string         `json:"location"          validate:"omitnil,min=1,max=100"`
	Description      *string         `json:"description"       validate:"omitnil,min=1,max=2000"`
	ColorScheme      *string         `json:"color_scheme"      validate:"omitnil,oneof=blue green red purple neutral"`
	LayoutStyle      *string         `json:"layout_style"      validate:"omitnil,oneof=modern classic minimal"`
	IsPublished      *bool           `json:"is_published"`
	Content          json.RawMessage `json:"content"`
}

func (b *patchBody) normalize() {
	for _, s := range []*string{b.BusinessName, b.BusinessType, b.BusinessCategory, b.Industry, b.Location, b.Description} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (b patchBody) patch() (site.Patch, error) {
	p := site.Patch{
		BusinessName: b.BusinessName,
		BusinessType: b.BusinessType,
		Industry:     b.Industry,
		Location:     b.Location,
		Description:  b.Description,
		ColorScheme:  b.ColorScheme,
		LayoutStyle:  b.LayoutStyle,
		IsPublished:  b.IsPublished,
	}
	if p.BusinessType == nil {
		p.BusinessType = b.BusinessCategory
	}
	if raw := strings.TrimSpace(string(b.Content)); raw != "" && raw != "null" {
		var c content.Content
		var text string
		if err := json.Unmarshal(b.Content, &text); err == nil {
			c = content.Parse(text)
		} else {
			c = content.Decode(raw)
		}
		if c.IsZero() {
			return p, &fieldError{Fields: map[string]string{"content": "must not be empty"}}
		}
		p.Content = &c
	}
	if p.Empty() {
		return p, fmt.Errorf("nothing to update: %w", apperr.ErrValidation)
	}
	return p, nil
}

// recordJSON is the wire form of a site.Record.
type recordJSON struct {
	ID           string          `json:"id"`
	SQLID        int64           `json:"sql_id,omitempty"`
	DocID        string          `json:"doc_id,omitempty"`
	OwnerEmail   string          `json:"user_email"`
	BusinessName string          `json:"business_name"`
	Slug         string          `json:"slug"`
	BusinessType string          `json:"business_type"`
	Industry     string          `json:"industry"`
	Location     string          `json:"location"`
	Description  string          `json:"description"`
	Content      content.Content `json:"content"`
	ColorScheme  string          `json:"color_scheme"`
	LayoutStyle  string          `json:"layout_style"`
	IsPublished  bool            `json:"is_published"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

func toJSON(r *site.Record) recordJSON {
	out := recordJSON{
		ID:           r.ID,
		SQLID:        r.SQLID,
		DocID:        r.DocID,
		OwnerEmail:   r.OwnerEmail,
		BusinessName: r.BusinessName,
		Slug:         r.Slug,
		BusinessType: r.BusinessType,
		Industry:     r.Industry,
		Location:     r.Location,
		Description:  r.Description,
		Content:      r.Content,
		ColorScheme:  r.ColorScheme,
		LayoutStyle:  r.LayoutStyle,
		IsPublished:  r.IsPublished,
	}
	if !r.CreatedAt.IsZero() {
		t := r.CreatedAt.UTC()
		out.CreatedAt = &t
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt.UTC()
		out.UpdatedAt = &t
	}
	return out
}
