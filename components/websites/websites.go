// components/websites/websites.go
//
// Website lifecycle pages: collect details, generate, list, view, edit, and
// delete.
//
// Context
//   Generation calls the content service exactly once (AI, or the starter
//   template when the AI is unavailable) and hands the record to the
//   dual-write store.  When the document copy was written its id is kept
//   in the session as `mongo_website_id`; later edits in the same session
//   pass it back as the mirror bridge.
//
// Notes
//   •  The store does not know about owners beyond the stored email, so
//      every id-addressed handler loads the record first and answers 404
//      when it belongs to someone else.
//   •  Document-store trouble never fails a page; its warning is flashed.
//
//------------------------------------------------------------------------------

package websites

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/auth"
	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/content"
	"github.com/yanizio/sitecraft/internal/form"
	"github.com/yanizio/sitecraft/internal/head"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/session"
	"github.com/yanizio/sitecraft/internal/site"
	"github.com/yanizio/sitecraft/internal/view"
)

//go:embed templates/*.html forms/*.yaml
var assets embed.FS

const (
	formDetails = "websites/details"
	formEdit    = "websites/edit"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component owns the website pages.
type Component struct {
	deps component.Deps
}

func (c *Component) Name() string { return "websites" }

// Init registers templates and form definitions.
func (c *Component) Init(d component.Deps) error {
	c.deps = d
	d.View.Register(c.Name(), assets)
	return form.RegisterFS(assets, "forms")
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/details", c.detailsGET)
	r.Post("/details", c.generate)
	r.Get("/create", c.createGET)
	r.Post("/generate", c.generate)
	r.Get("/websites", c.list)
	r.Get("/websites/{id}", c.show)
	r.Get("/websites/{id}/edit", c.editGET)
	r.Post("/websites/{id}/edit", c.editPOST)
	r.Post("/websites/{id}/delete", c.delete)
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Generate ─────────────────────────────────────*/

type detailsPage struct {
	Heading string
	Action  string
	Form    template.HTML
}

func (c *Component) detailsGET(w http.ResponseWriter, r *http.Request) {
	c.showDetails(w, r, http.StatusOK, "/details", form.RenderOptions{})
}

func (c *Component) createGET(w http.ResponseWriter, r *http.Request) {
	c.showDetails(w, r, http.StatusOK, "/generate", form.RenderOptions{})
}

func (c *Component) showDetails(w http.ResponseWriter, r *http.Request, status int, action string, opts form.RenderOptions) {
	html, err := form.RenderForm(formDetails, opts)
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	c.deps.Render(w, r, status, c.Name(), "details", "Tell us about your business", detailsPage{
		Heading: "Tell us about your business",
		Action:  action,
		Form:    html,
	})
}

// generate serves POST /details and POST /generate.
func (c *Component) generate(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.Email(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	action := r.URL.Path

	data, err := form.HandleSubmit(formDetails, r)
	if err != nil {
		if !form.IsValidationError(err) {
			c.deps.Fail(w, r, err)
			return
		}
		c.showDetails(w, r, http.StatusBadRequest, action, form.RenderOptions{
			Prefill: form.Prefill(r), Errors: form.FieldErrors(err),
		})
		return
	}

	req := content.Request{
		BusinessName: form.String(data, "business_name"),
		BusinessType: form.String(data, "business_type"),
		Industry:     form.String(data, "industry"),
		Location:     form.String(data, "location"),
		Description:  form.String(data, "description"),
	}
	body, outcome, err := c.deps.Content.Generate(r.Context(), req)
	if err != nil {
		if apperr.Status(err) != http.StatusBadRequest {
			c.deps.Fail(w, r, err)
			return
		}
		c.showDetails(w, r, http.StatusBadRequest, action, form.RenderOptions{
			Prefill: form.Prefill(r), Errors: []form.ErrorField{{Message: apperr.Message(err)}},
		})
		return
	}

	res, err := c.deps.Sites.Create(r.Context(), site.NewRecord(email, req, body))
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Infow("website created",
		"id", res.ID, "provenance", res.Provenance, "fallback", outcome.FellBack)

	s := session.FromContext(r.Context())
	if res.DocID != "" {
		s.MongoWebsiteID = res.DocID
	}
	s.Flash = joinNotes("Your website is ready.", outcome.Note, res.Warning)
	if err := c.deps.Sessions.Save(w, r, s); err != nil {
		logger.FromContext(r.Context()).Warnw("session save failed", "err", err)
	}
	http.Redirect(w, r, "/websites/"+res.ID, http.StatusSeeOther)
}

/*──────────────────────────── Read ─────────────────────────────────────────*/

type listPage struct {
	Sites      []site.Record
	Provenance site.Provenance
	Limit      int
	Skip       int
	PrevSkip   int
	NextSkip   int
	HasPrev    bool
	HasNext    bool
}

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.Email(r.Context())
	opts := c.pageOptions(r)

	recs, prov, err := c.deps.Sites.ListByOwner(r.Context(), email, opts)
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	c.deps.Render(w, r, http.StatusOK, c.Name(), "list", "My websites", listPage{
		Sites:      recs,
		Provenance: prov,
		Limit:      opts.Limit,
		Skip:       opts.Skip,
		PrevSkip:   max(opts.Skip-opts.Limit, 0),
		NextSkip:   opts.Skip + opts.Limit,
		HasPrev:    opts.Skip > 0,
		HasNext:    len(recs) == opts.Limit,
	})
}

// pageOptions reads ?limit= and ?skip=, falling back to the configured
// page size.  Garbage values are ignored.
func (c *Component) pageOptions(r *http.Request) site.ListOptions {
	opts := site.ListOptions{Limit: c.deps.Config.Storage.ListLimit}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		opts.Limit = min(n, 100)
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && n > 0 {
		opts.Skip = n
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	return opts
}

type viewPage struct {
	Record     *site.Record
	Provenance site.Provenance
	Doc        *content.Document
	Raw        string
}

func (c *Component) show(w http.ResponseWriter, r *http.Request) {
	rec, prov, ok := c.owned(w, r)
	if !ok {
		return
	}

	p := view.NewPage(r, rec.BusinessName, viewPage{
		Record:     rec,
		Provenance: prov,
		Doc:        rec.Content.Doc,
		Raw:        rec.Content.Raw,
	})
	p.Flash = c.deps.Sessions.PopFlash(w, r)
	p.Head.Description(rec.Description)
	if err := p.Head.LocalBusiness(head.Business{
		Name:        rec.BusinessName,
		Type:        rec.BusinessType,
		Location:    rec.Location,
		Description: rec.Description,
	}); err != nil {
		logger.FromContext(r.Context()).Warnw("json-ld build failed", "err", err)
	}
	c.deps.RenderPage(w, r, http.StatusOK, c.Name(), "view", p)
}

// owned loads {id} and checks it belongs to the signed-in user.  On false
// the response has already been written.
func (c *Component) owned(w http.ResponseWriter, r *http.Request) (*site.Record, site.Provenance, bool) {
	email, _ := auth.Email(r.Context())
	id := chi.URLParam(r, "id")

	rec, prov, err := c.deps.Sites.Get(r.Context(), id)
	if err == nil && rec.OwnerEmail != email {
		err = fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		c.deps.Fail(w, r, err)
		return nil, "", false
	}
	return rec, prov, true
}

/*──────────────────────────── Edit / Delete ────────────────────────────────*/

type editPage struct {
	Record *site.Record
	Form   template.HTML
}

func (c *Component) editGET(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := c.owned(w, r)
	if !ok {
		return
	}
	c.showEdit(w, r, http.StatusOK, rec, form.RenderOptions{Prefill: prefill(rec)})
}

func (c *Component) showEdit(w http.ResponseWriter, r *http.Request, status int, rec *site.Record, opts form.RenderOptions) {
	html, err := form.RenderForm(formEdit, opts)
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	c.deps.Render(w, r, status, c.Name(), "edit", "Edit "+rec.BusinessName, editPage{Record: rec, Form: html})
}

func prefill(rec *site.Record) map[string]string {
	pub := ""
	if rec.IsPublished {
		pub = "true"
	}
	return map[string]string{
		"business_name": rec.BusinessName,
		"business_type": rec.BusinessType,
		"industry":      rec.Industry,
		"location":      rec.Location,
		"description":   rec.Description,
		"content":       rec.Content.Text(),
		"color_scheme":  rec.ColorScheme,
		"layout_style":  rec.LayoutStyle,
		"is_published":  pub,
	}
}

func (c *Component) editPOST(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := c.owned(w, r)
	if !ok {
		return
	}
	data, err := form.HandleSubmit(formEdit, r)
	if err != nil {
		if !form.IsValidationError(err) {
			c.deps.Fail(w, r, err)
			return
		}
		c.showEdit(w, r, http.StatusBadRequest, rec, form.RenderOptions{
			Prefill: form.Prefill(r), Errors: form.FieldErrors(err),
		})
		return
	}

	res, err := c.deps.Sites.Update(r.Context(), rec.ID, patchFrom(data), bridge(r))
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	c.deps.Flash(w, r, joinNotes("Website updated.", res.Warning))
	http.Redirect(w, r, "/websites/"+rec.ID, http.StatusSeeOther)
}

// patchFrom maps clean edit-form values onto a full Patch.  Blank content
// leaves the stored content untouched.
func patchFrom(data map[string]any) site.Patch {
	str := func(name string) *string {
		v := form.String(data, name)
		return &v
	}
	pub := form.Bool(data, "is_published")
	p := site.Patch{
		BusinessName: str("business_name"),
		BusinessType: str("business_type"),
		Industry:     str("industry"),
		Location:     str("location"),
		Description:  str("description"),
		ColorScheme:  str("color_scheme"),
		LayoutStyle:  str("layout_style"),
		IsPublished:  &pub,
	}
	if text := form.String(data, "content"); text != "" {
		body := content.Parse(text)
		p.Content = &body
	}
	return p
}

func (c *Component) delete(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := c.owned(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil || !form.VerifyToken(r.PostForm.Get("csrf_token")) {
		c.deps.Fail(w, r, fmt.Errorf("delete website: security token invalid: %w", apperr.ErrValidation))
		return
	}

	res, err := c.deps.Sites.Delete(r.Context(), rec.ID, bridge(r))
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	s := session.FromContext(r.Context())
	if s.MongoWebsiteID != "" && s.MongoWebsiteID == rec.DocID {
		s.MongoWebsiteID = ""
	}
	s.Flash = joinNotes("Website deleted.", res.Warning)
	if err := c.deps.Sessions.Save(w, r, s); err != nil {
		logger.FromContext(r.Context()).Warnw("session save failed", "err", err)
	}
	http.Redirect(w, r, "/websites", http.StatusSeeOther)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func bridge(r *http.Request) site.Bridge {
	return site.Bridge{DocID: session.FromContext(r.Context()).MongoWebsiteID}
}

// joinNotes builds one flash line from the non-empty parts.
func joinNotes(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			if !strings.HasSuffix(p, ".") {
				p += "."
			}
			out = append(out, p)
		}
	}
	return strings.Join(out, "  ")
}
