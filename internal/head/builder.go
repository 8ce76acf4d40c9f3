// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single render.  Handlers push tags into
// the builder, then the base layout decides where to emit each slice.
//
// Features
// --------
//   - SetTitle / Title      – single <title> tag (last call wins).
//   - Description           – meta description, escaped.
//   - Meta, Link            – arbitrary pre-built tags, deduplicated.
//   - JSONLD / LocalBusiness – structured data wrapped in
//     <script type="application/ld+json">…</script>.
package head

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"html/template"
	"strings"
	"sync"
)

// Builder is safe for concurrent use, though one goroutine per request is
// the normal pattern.
type Builder struct {
	mu sync.Mutex

	title string

	metas  []string
	links  []string
	jsonLD []string

	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Description adds <meta name="description">.  Empty input is ignored.
func (b *Builder) Description(d string) {
	d = strings.TrimSpace(d)
	if d == "" {
		return
	}
	b.Meta(`<meta name="description" content="` + template.HTMLEscapeString(d) + `">`)
}

func (b *Builder) Meta(tag string) { b.add("meta:"+tag, &b.metas, tag) }
func (b *Builder) Link(tag string) { b.add("link:"+tag, &b.links, tag) }

// JSONLD stores one raw JSON-LD document.  Callers must pass JSON produced
// by encoding/json so "<" is already escaped.
func (b *Builder) JSONLD(js string) { b.add("jsonld:"+hash(js), &b.jsonLD, js) }

// Business is the subset of schema.org/LocalBusiness a generated site knows.
type Business struct {
	Name        string
	Type        string
	Location    string
	Description string
	Phone       string
	Email       string
}

// LocalBusiness adds a schema.org LocalBusiness block.
func (b *Builder) LocalBusiness(biz Business) error {
	doc := map[string]any{
		"@context": "https://schema.org",
		"@type":    "LocalBusiness",
		"name":     biz.Name,
	}
	if biz.Type != "" {
		doc["additionalType"] = biz.Type
	}
	if biz.Description != "" {
		doc["description"] = biz.Description
	}
	if biz.Location != "" {
		doc["address"] = map[string]string{"@type": "PostalAddress", "addressLocality": biz.Location}
	}
	if biz.Phone != "" {
		doc["telephone"] = biz.Phone
	}
	if biz.Email != "" {
		doc["email"] = biz.Email
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	b.JSONLD(string(raw))
	return nil
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

func (b *Builder) Metas() template.HTML { return b.concat(b.metas) }
func (b *Builder) Links() template.HTML { return b.concat(b.links) }

// JSON returns all JSON-LD blocks wrapped in <script> tags.
func (b *Builder) JSON() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}

// concat joins pre-escaped tags without a separator.
func (b *Builder) concat(sl []string) template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return template.HTML(strings.Join(sl, ""))
}
