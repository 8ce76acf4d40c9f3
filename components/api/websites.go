// components/api/websites.go
//
// Website CRUD over JSON.  Ownership is checked the same way as the HTML
// pages: a record owned by someone else is reported as not found.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/auth"
	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/site"
)

type createResponse struct {
	Website    recordJSON      `json:"website"`
	Provenance site.Provenance `json:"provenance"`
	FellBack   bool            `json:"fallback"`
	Warning    string          `json:"warning,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// create serves POST /api/create-website and POST /api/details.
func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.Email(r.Context())
	body, err := c.decodeWebsite(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := body.request()
	generated, outcome, err := c.deps.Content.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec := site.NewRecord(email, req, generated)
	res, err := c.deps.Sites.Create(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Infow("website created",
		"id", res.ID, "provenance", res.Provenance, "fallback", outcome.FellBack, "via", "api")

	if stored, _, err := c.deps.Sites.Get(r.Context(), res.ID); err == nil {
		rec = *stored
	} else {
		rec.ID, rec.DocID, rec.SQLID = res.ID, res.DocID, res.SQLID
	}
	component.WriteJSON(w, http.StatusCreated, createResponse{
		Website:    toJSON(&rec),
		Provenance: res.Provenance,
		FellBack:   outcome.FellBack,
		Warning:    res.Warning,
		Note:       outcome.Note,
	})
}

type listResponse struct {
	Websites   []recordJSON    `json:"websites"`
	Provenance site.Provenance `json:"provenance"`
	Limit      int             `json:"limit"`
	Skip       int             `json:"skip"`
}

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.Email(r.Context())
	opts, err := c.pageOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, prov, err := c.deps.Sites.ListByOwner(r.Context(), email, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := listResponse{Websites: make([]recordJSON, 0, len(recs)), Provenance: prov, Limit: opts.Limit, Skip: opts.Skip}
	for i := range recs {
		out.Websites = append(out.Websites, toJSON(&recs[i]))
	}
	component.WriteJSON(w, http.StatusOK, out)
}

// pageOptions reads ?limit= and ?skip=.  Unlike the HTML list, bad values
// are reported instead of ignored.
func (c *Component) pageOptions(r *http.Request) (site.ListOptions, error) {
	opts := site.ListOptions{Limit: c.deps.Config.Storage.ListLimit}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return opts, &fieldError{Fields: map[string]string{"limit": "must be between 1 and 100"}}
		}
		opts.Limit = n
	}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, &fieldError{Fields: map[string]string{"skip": "must be zero or more"}}
		}
		opts.Skip = n
	}
	return opts, nil
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	rec, prov, err := c.owned(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	component.WriteJSON(w, http.StatusOK, map[string]any{
		"website":    toJSON(rec),
		"provenance": prov,
	})
}

type writeResponse struct {
	ID       string `json:"id"`
	SQLID    int64  `json:"sql_id"`
	Mirrored bool   `json:"mirrored"`
	Warning  string `json:"warning,omitempty"`
}

func (c *Component) update(w http.ResponseWriter, r *http.Request) {
	rec, _, err := c.owned(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body patchBody
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := readJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	body.normalize()
	if err := c.check(&body); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := body.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := c.deps.Sites.Update(r.Context(), rec.ID, p, site.Bridge{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	component.WriteJSON(w, http.StatusOK, writeResponse{ID: rec.ID, SQLID: res.SQLID, Mirrored: res.Mirrored, Warning: res.Warning})
}

func (c *Component) remove(w http.ResponseWriter, r *http.Request) {
	rec, _, err := c.owned(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := c.deps.Sites.Delete(r.Context(), rec.ID, site.Bridge{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	component.WriteJSON(w, http.StatusOK, writeResponse{ID: rec.ID, SQLID: res.SQLID, Mirrored: res.Mirrored, Warning: res.Warning})
}

// owned loads {id} for the bearer's email.
func (c *Component) owned(r *http.Request) (*site.Record, site.Provenance, error) {
	email, _ := auth.Email(r.Context())
	id := chi.URLParam(r, "id")
	rec, prov, err := c.deps.Sites.Get(r.Context(), id)
	if err != nil {
		return nil, "", err
	}
	if rec.OwnerEmail != email {
		return nil, "", fmt.Errorf("website %s: %w", id, apperr.ErrNotFound)
	}
	return rec, prov, nil
}
