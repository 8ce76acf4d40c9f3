// internal/view/render.go
//
// Central view engine: per-component template sets layered over one base
// layout, func-map injection, and an LRU of parsed *template.Template sets.
//
// Public helpers
// --------------
//   - Register        – components hand over their embedded template FS.
//   - Render          – write rendered HTML to an http.ResponseWriter.
//   - RenderToString  – return template.HTML (tests, fragments).
//
// Layout
// ------
// The base layout (layouts/base.html, embedded) defines "base" and calls
// {{ template "content" . }}.  Each page file under
// components/<comp>/templates/<name>.html defines "content" (and optionally
// "title").  Files named "_*.html" in the same directory are partials and
// are parsed into every page set of that component.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sync"

	"github.com/yanizio/sitecraft/internal/cache"
)

//go:embed layouts/*.html
var layoutFS embed.FS

// Options tunes an Engine.
type Options struct {
	// AssetPrefix is prepended by the "asset" template func.
	AssetPrefix string
	// Reload disables the template cache (local development).
	Reload bool
	// CacheSize bounds the number of parsed page sets kept.
	CacheSize int
}

// Engine renders component templates inside the base layout.
type Engine struct {
	mu    sync.RWMutex
	comps map[string]fs.FS

	base  *template.Template
	cache *cache.LRU[string, *template.Template]
	opts  Options
}

// New parses the base layout and returns an Engine.
func New(opts Options) (*Engine, error) {
	if opts.AssetPrefix == "" {
		opts.AssetPrefix = "/static/"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	base, err := template.New("base").Funcs(funcMap(opts.AssetPrefix)).ParseFS(layoutFS, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse base layout: %w", err)
	}
	return &Engine{
		comps: make(map[string]fs.FS),
		base:  base,
		cache: cache.New[string, *template.Template](opts.CacheSize),
		opts:  opts,
	}, nil
}

// Register makes comp's templates available.  fsys must contain a
// "templates" directory.  Re-registering a component drops cached sets.
func (e *Engine) Register(comp string, fsys fs.FS) {
	e.mu.Lock()
	_, existed := e.comps[comp]
	e.comps[comp] = fsys
	e.mu.Unlock()
	if existed {
		e.cache.Purge()
	}
}

// Render executes comp/name inside the base layout and writes it with the
// given status.  Output is buffered so a template error never leaves a
// half-written page.
func (e *Engine) Render(w http.ResponseWriter, status int, comp, name string, p *Page) error {
	var buf bytes.Buffer
	if err := e.execute(&buf, comp, name, p); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderToString mirrors Render but returns the markup.
func (e *Engine) RenderToString(comp, name string, p *Page) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.execute(&buf, comp, name, p); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (e *Engine) execute(buf *bytes.Buffer, comp, name string, p *Page) error {
	t, err := e.load(comp, name)
	if err != nil {
		return err
	}
	if p == nil {
		p = &Page{}
	}
	p.ensureHead()
	return t.ExecuteTemplate(buf, "base", p)
}

// load returns the parsed set for comp/name, parsing on a cache miss.
func (e *Engine) load(comp, name string) (*template.Template, error) {
	key := comp + "::" + name
	if !e.opts.Reload {
		if t, ok := e.cache.Get(key); ok {
			return t, nil
		}
	}

	e.mu.RLock()
	fsys, ok := e.comps[comp]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("view: component %q not registered", comp)
	}

	page := path.Join("templates", name+".html")
	if _, err := fs.Stat(fsys, page); err != nil {
		return nil, fmt.Errorf("view: %s/%s: %w", comp, name, err)
	}
	files := []string{page}
	partials, _ := fs.Glob(fsys, "templates/_*.html")
	files = append(files, partials...)

	t, err := template.Must(e.base.Clone()).ParseFS(fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("view: parse %s/%s: %w", comp, name, err)
	}
	if !e.opts.Reload {
		e.cache.Add(key, t)
	}
	return t, nil
}
