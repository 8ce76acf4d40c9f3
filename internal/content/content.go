// internal/content/content.go
//
// Website content payload and generation request.
//
// Context
// -------
// Generated content arrives in one of two shapes: a structured Document
// (hero, about, services, testimonials, contact, footer) or raw markup the
// model produced instead.  Content is a tagged variant so callers switch on
// Kind once instead of sniffing the payload at every call site.
//
// Persistence
// -----------
//   - Relational copy → JSON envelope in a TEXT column (Encode / Decode).
//   - Document copy   → embedded sub-document with the same `kind` field.
//
// Notes
// -----
// • Decode accepts legacy rows that hold a bare Document JSON or plain text.
// • Oxford commas, two spaces after periods.
package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yanizio/sitecraft/internal/apperr"
)

// Kind discriminates the Content variant.
type Kind string

const (
	KindDocument Kind = "document"
	KindRaw      Kind = "raw"
)

type Hero struct {
	Title    string `json:"title" bson:"title"`
	Subtitle string `json:"subtitle" bson:"subtitle"`
	CTA      string `json:"cta" bson:"cta"`
}

type About struct {
	Heading string `json:"heading" bson:"heading"`
	Body    string `json:"body" bson:"body"`
}

type ServiceItem struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
}

type Testimonial struct {
	Quote  string `json:"quote" bson:"quote"`
	Author string `json:"author" bson:"author"`
}

type Contact struct {
	Heading  string `json:"heading" bson:"heading"`
	Location string `json:"location" bson:"location"`
	Body     string `json:"body" bson:"body"`
}

type Footer struct {
	Text string `json:"text" bson:"text"`
}

// Document is the structured website layout.
type Document struct {
	Hero         Hero          `json:"hero" bson:"hero"`
	About        About         `json:"about" bson:"about"`
	Services     []ServiceItem `json:"services" bson:"services"`
	Testimonials []Testimonial `json:"testimonials" bson:"testimonials"`
	Contact      Contact       `json:"contact" bson:"contact"`
	Footer       Footer        `json:"footer" bson:"footer"`
}

// empty reports whether nothing recognisable was decoded.
func (d *Document) empty() bool {
	return d.Hero.Title == "" && d.About.Body == "" && len(d.Services) == 0
}

// Content is either a Document or Raw text, never both.
type Content struct {
	Kind Kind      `json:"kind" bson:"kind"`
	Doc  *Document `json:"document,omitempty" bson:"document,omitempty"`
	Raw  string    `json:"raw,omitempty" bson:"raw,omitempty"`
}

// FromDocument wraps d.
func FromDocument(d Document) Content { return Content{Kind: KindDocument, Doc: &d} }

// FromRaw wraps s.
func FromRaw(s string) Content { return Content{Kind: KindRaw, Raw: s} }

// IsZero reports whether c carries no payload.
func (c Content) IsZero() bool {
	switch c.Kind {
	case KindDocument:
		return c.Doc == nil
	case KindRaw:
		return strings.TrimSpace(c.Raw) == ""
	}
	return true
}

// Text renders c as a single searchable string.  Documents are flattened to
// their JSON form, which is also what the edit form shows.
func (c Content) Text() string {
	if c.Kind == KindDocument && c.Doc != nil {
		b, _ := json.MarshalIndent(c.Doc, "", "  ")
		return string(b)
	}
	return c.Raw
}

// Encode returns the JSON envelope stored in the relational `content` column.
func (c Content) Encode() (string, error) {
	if c.Kind == "" {
		c.Kind = KindRaw
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode reverses Encode.  Anything that is not an envelope goes through
// Parse, so legacy rows still load.
func Decode(s string) Content {
	var c Content
	if err := json.Unmarshal([]byte(s), &c); err == nil {
		switch {
		case c.Kind == KindDocument && c.Doc != nil:
			return c
		case c.Kind == KindRaw:
			return c
		}
	}
	return Parse(s)
}

// Parse classifies free text: fenced or bare Document JSON becomes
// KindDocument, everything else KindRaw.
func Parse(text string) Content {
	text = stripFences(text)
	if strings.HasPrefix(text, "{") {
		var d Document
		if err := json.Unmarshal([]byte(text), &d); err == nil && !d.empty() {
			return FromDocument(d)
		}
	}
	return FromRaw(text)
}

// stripFences removes a surrounding ```lang ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Request carries the five business attributes generation needs.
type Request struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Industry     string `json:"industry"`
	Location     string `json:"location"`
	Description  string `json:"description"`
}

// Validate fails with apperr.ErrValidation naming every blank field.
func (r Request) Validate() error {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"business_name", r.BusinessName},
		{"business_type", r.BusinessType},
		{"industry", r.Industry},
		{"location", r.Location},
		{"description", r.Description},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), apperr.ErrValidation)
	}
	return nil
}
