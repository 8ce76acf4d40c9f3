// internal/view/page.go
//
// Page is the root value every template receives.
package view

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/yanizio/sitecraft/internal/auth"
	"github.com/yanizio/sitecraft/internal/head"
	"github.com/yanizio/sitecraft/internal/requestinfo"
)

// Page carries layout-level values plus the handler's Data.
//
// Authenticated and UserEmail are available on every page, the same way
// the navigation bar needs them regardless of which component rendered.
type Page struct {
	Head          *head.Builder
	Authenticated bool
	UserEmail     string
	Flash         string
	RequestID     string
	Info          *requestinfo.RequestInfo
	Data          any
}

// NewPage builds a Page from the request context with title set.
func NewPage(r *http.Request, title string, data any) *Page {
	ctx := r.Context()
	p := &Page{
		Head:      head.New(),
		RequestID: middleware.GetReqID(ctx),
		Info:      requestinfo.FromContext(ctx),
		Data:      data,
	}
	if title != "" {
		p.Head.SetTitle(title + " · Sitecraft")
	} else {
		p.Head.SetTitle("Sitecraft")
	}
	if email, ok := auth.Email(ctx); ok {
		p.Authenticated = true
		p.UserEmail = email
	}
	return p
}

func (p *Page) ensureHead() {
	if p.Head == nil {
		p.Head = head.New()
		p.Head.SetTitle("Sitecraft")
	}
}
