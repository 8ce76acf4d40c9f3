// components/api/api.go
//
// JSON API for scripts and single-page clients.
//
// Context
//   Everything lives under /api.  Signup and login are open; every website
//   route requires "Authorization: Bearer <token>" with a token issued by
//   /api/login (or the HTML login, which signs the same claims).  CORS is
//   applied to the whole subtree with the origins from http.cors_origins.
//
// Notes
//   •  Errors are always {"error": "..."} and validation failures add a
//      "fields" object keyed by JSON field name.
//   •  The API has no session, so updates never carry a mirror bridge.  The
//      store's policy alone decides whether the document copy follows.
//
//------------------------------------------------------------------------------

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/credential"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/middleware"
)

// maxBody caps request bodies.  Generated content edits are the largest.
const maxBody = 1 << 20

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves /api.
type Component struct {
	deps     component.Deps
	validate *validator.Validate
}

func (c *Component) Name() string { return "api" }

func (c *Component) Init(d component.Deps) error {
	c.deps = d
	c.validate = newValidator()
	return nil
}

// Routes mounts the /api subtree.
func (c *Component) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: c.deps.Config.HTTP.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))

		r.Post("/signup", c.signup)
		r.Post("/login", c.login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Bearer(c.deps.Tokens))
			r.Post("/create-website", c.create)
			r.Post("/details", c.create)
			r.Get("/websites", c.list)
			r.Get("/websites/{id}", c.get)
			r.Put("/websites/{id}", c.update)
			r.Delete("/websites/{id}", c.remove)
		})
	})
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Accounts ─────────────────────────────────────*/

type signupBody struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginBody struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Component) signup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := c.decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	email := credential.NormalizeEmail(body.Email)
	if err := c.deps.Credentials.Register(r.Context(), email, body.Password); err != nil {
		writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Infow("account created", "email", email, "via", "api")
	component.WriteJSON(w, http.StatusCreated, map[string]string{"email": email})
}

func (c *Component) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := c.decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := c.deps.Credentials.Authenticate(r.Context(), credential.NormalizeEmail(body.Email), body.Password)
	if err != nil {
		// One message for unknown email and wrong password.
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			err = apperr.ErrInvalidCredentials
		}
		writeError(w, r, err)
		return
	}
	component.WriteJSON(w, http.StatusOK, map[string]string{"token": tok})
}

// writeError adds the per-field map for validation failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *fieldError
	if errors.As(err, &fe) {
		component.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  fe.Error(),
			"fields": fe.Fields,
		})
		return
	}
	component.WriteError(w, r, err)
}
