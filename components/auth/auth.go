// components/auth/auth.go
//
// Authentication component: signup, login, and logout pages.
//
// Workflow
//   •  GET renders the YAML-defined form.
//   •  POST validates through form.HandleSubmit, calls the credential
//      store, and either redirects or re-renders with the prior input and
//      the error next to the offending field.
//   •  Login stores the signed token and email in the server-side session
//      under a fresh session id.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/credential"
	"github.com/yanizio/sitecraft/internal/form"
	"github.com/yanizio/sitecraft/internal/logger"
)

//go:embed templates/*.html forms/*.yaml
var assets embed.FS

const (
	formSignup = "auth/signup"
	formLogin  = "auth/login"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates account flows.
type Component struct {
	deps component.Deps
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init registers templates and form definitions.
func (c *Component) Init(d component.Deps) error {
	c.deps = d
	d.View.Register(c.Name(), assets)
	return form.RegisterFS(assets, "forms")
}

// Routes adds the account pages.
func (c *Component) Routes(r chi.Router) {
	r.Get("/signup", c.signupGET)
	r.Post("/signup", c.signupPOST)
	r.Get("/login", c.loginGET)
	r.Post("/login", c.loginPOST)
	r.Get("/logout", c.logout)
	r.Post("/logout", c.logout)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type formPage struct {
	Form template.HTML
}

func (c *Component) show(w http.ResponseWriter, r *http.Request, status int, formID, tpl, title string, opts form.RenderOptions) {
	html, err := form.RenderForm(formID, opts)
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	c.deps.Render(w, r, status, c.Name(), tpl, title, formPage{Form: html})
}

func (c *Component) signupGET(w http.ResponseWriter, r *http.Request) {
	c.show(w, r, http.StatusOK, formSignup, "signup", "Sign up", form.RenderOptions{})
}

func (c *Component) signupPOST(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit(formSignup, r)
	if err != nil {
		c.retryErr(w, r, formSignup, "signup", "Sign up", err)
		return
	}

	email := form.String(data, "email")
	err = c.deps.Credentials.Register(r.Context(), email, form.String(data, "password"))
	switch {
	case errors.Is(err, apperr.ErrDuplicateEmail):
		c.retry(w, r, formSignup, "signup", "Sign up", http.StatusConflict,
			[]form.ErrorField{{Name: "email", Message: "An account with this email already exists."}})
		return
	case errors.Is(err, apperr.ErrValidation):
		c.retry(w, r, formSignup, "signup", "Sign up", http.StatusBadRequest,
			[]form.ErrorField{{Message: apperr.Message(err)}})
		return
	case err != nil:
		c.deps.Fail(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Infow("account created", "email", email)
	c.deps.Flash(w, r, "Account created.  Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (c *Component) loginGET(w http.ResponseWriter, r *http.Request) {
	c.show(w, r, http.StatusOK, formLogin, "login", "Log in", form.RenderOptions{})
}

func (c *Component) loginPOST(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit(formLogin, r)
	if err != nil {
		c.retryErr(w, r, formLogin, "login", "Log in", err)
		return
	}

	email := credential.NormalizeEmail(form.String(data, "email"))
	tok, err := c.deps.Credentials.Authenticate(r.Context(), email, form.String(data, "password"))
	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials):
		c.retry(w, r, formLogin, "login", "Log in", http.StatusUnauthorized,
			[]form.ErrorField{{Message: "Invalid email or password."}})
		return
	case err != nil:
		c.deps.Fail(w, r, err)
		return
	}

	if err := c.deps.Sessions.LoginUser(w, r, email, tok); err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/websites", http.StatusSeeOther)
}

func (c *Component) logout(w http.ResponseWriter, r *http.Request) {
	c.deps.Sessions.LogoutUser(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// retry re-renders formID with the posted values and the given errors.
func (c *Component) retry(w http.ResponseWriter, r *http.Request, formID, tpl, title string, status int, fields []form.ErrorField) {
	c.show(w, r, status, formID, tpl, title, form.RenderOptions{
		Prefill: form.Prefill(r),
		Errors:  fields,
	})
}

// retryErr re-renders for validation failures and falls through to the
// generic error page for anything else.
func (c *Component) retryErr(w http.ResponseWriter, r *http.Request, formID, tpl, title string, err error) {
	if !form.IsValidationError(err) {
		c.deps.Fail(w, r, err)
		return
	}
	c.retry(w, r, formID, tpl, title, http.StatusBadRequest, form.FieldErrors(err))
}
