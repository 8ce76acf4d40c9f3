// internal/component/respond.go
//
// Response helpers shared by HTML and JSON handlers.
//
// Errors are mapped through apperr.Status so every component answers the
// same kind with the same code.  5xx causes are logged with the request
// logger and replaced by generic text before they reach the client.
package component

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/view"
)

// Render builds a Page for r (popping any flash message) and renders
// comp/name with status.
func (d Deps) Render(w http.ResponseWriter, r *http.Request, status int, comp, name, title string, data any) {
	p := view.NewPage(r, title, data)
	if d.Sessions != nil {
		p.Flash = d.Sessions.PopFlash(w, r)
	}
	d.RenderPage(w, r, status, comp, name, p)
}

// RenderPage renders an already prepared Page.
func (d Deps) RenderPage(w http.ResponseWriter, r *http.Request, status int, comp, name string, p *view.Page) {
	if err := d.View.Render(w, status, comp, name, p); err != nil {
		logger.FromContext(r.Context()).Errorw("render failed", "component", comp, "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Fail writes a plain-text error page for err.
func (d Deps) Fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Status(err)
	if code >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Errorw("request failed", "err", err)
	}
	http.Error(w, apperr.Message(err), code)
}

// Flash queues msg for the next page, logging (not failing) on error.
func (d Deps) Flash(w http.ResponseWriter, r *http.Request, msg string) {
	if err := d.Sessions.SetFlash(w, r, msg); err != nil {
		logger.FromContext(r.Context()).Warnw("flash save failed", "err", err)
	}
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError encodes err as {"error": "..."} with its mapped status.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Status(err)
	if code >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Errorw("api request failed", "err", err)
	}
	WriteJSON(w, code, map[string]string{"error": apperr.Message(err)})
}
