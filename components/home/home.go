// components/home/home.go
//
// Landing page.
//
//------------------------------------------------------------------------------

package home

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sitecraft/internal/component"
)

//go:embed templates/*.html
var assets embed.FS

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves "/".
type Component struct {
	deps component.Deps
}

func (c *Component) Name() string { return "home" }

func (c *Component) Init(d component.Deps) error {
	c.deps = d
	d.View.Register(c.Name(), assets)
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/", c.index)
}

func init() { component.Register(&Component{}) }

func (c *Component) index(w http.ResponseWriter, r *http.Request) {
	c.deps.Render(w, r, http.StatusOK, c.Name(), "index", "", nil)
}
