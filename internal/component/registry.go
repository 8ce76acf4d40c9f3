// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web imports the
// component packages for their side effects, calls Init(deps) on every
// registered component, and lets each one add its routes to the shared
// router.  chi refuses to Mount two routers at "/", so components register
// directly on the root (using r.Group for their own middleware).

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes(r) should add every page and API endpoint the component owns:
//
//	r.Get("/login", c.getLogin)
//	r.Group(func(api chi.Router) {
//		api.Use(cors.Handler(opts))
//		api.Post("/api/login", c.apiLogin)
//	})
//
// Init runs once, before Routes, with the shared process dependencies.
type Component interface {
	Name() string
	Init(Deps) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  A later
// registration with the same name replaces the earlier one.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name, so mount order
// and log output are stable.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component and adds its routes to r.
func Mount(r chi.Router, deps Deps) error {
	for _, c := range All() {
		if err := c.Init(deps); err != nil {
			return err
		}
		c.Routes(r)
		deps.Log.Infow("component mounted", "component", c.Name())
	}
	return nil
}
