// components/admin/admin.go
//
// Operator pages.  Currently just storage diagnostics.
//
// Context
//   /admin/ is on the auth gate's allow-list, so access is decided here by
//   the ACL table: the signed-in email must hold the configured admin role
//   (auth.admin_role, default "admin").  Roles are granted out of band with
//   acl.Grant or a row in `user_role`.
//
//------------------------------------------------------------------------------

package admin

import (
	"embed"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/sitecraft/internal/acl"
	"github.com/yanizio/sitecraft/internal/auth"
	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/logger"
	"github.com/yanizio/sitecraft/internal/site"
)

//go:embed templates/*.html
var assets embed.FS

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

type Component struct {
	deps component.Deps
}

func (c *Component) Name() string { return "admin" }

func (c *Component) Init(d component.Deps) error {
	if d.DB == nil {
		return errors.New("admin: role checks need the relational database")
	}
	c.deps = d
	d.View.Register(c.Name(), assets)
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireRole(c.deps.DB, c.deps.Config.Auth.AdminRole))
		r.Get("/admin/storage", c.storage)
		r.Get("/admin/storage.json", c.storageJSON)
	})
}

func init() { component.Register(&Component{}) }

type storagePage struct {
	Stats site.Stats
	Roles []string
}

func (c *Component) storage(w http.ResponseWriter, r *http.Request) {
	st, err := c.deps.Sites.Stats(r.Context())
	if err != nil {
		c.deps.Fail(w, r, err)
		return
	}
	email, _ := auth.Email(r.Context())
	roles, err := acl.UserRoles(r.Context(), c.deps.DB, email)
	if err != nil {
		logger.FromContext(r.Context()).Warnw("role listing failed", "err", err)
	}
	c.deps.Render(w, r, http.StatusOK, c.Name(), "storage", "Storage", storagePage{Stats: st, Roles: roles})
}

type docJSON struct {
	Connected   bool     `json:"connected"`
	Database    string   `json:"database"`
	URI         string   `json:"uri"`
	Collections []string `json:"collections"`
	Count       int64    `json:"count"`
	SampleID    string   `json:"sample_id,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type statsJSON struct {
	Policy        site.MirrorPolicy `json:"mirror_policy"`
	RelationalOK  bool              `json:"relational_ok"`
	RelationalErr string            `json:"relational_error,omitempty"`
	RowCount      int64             `json:"row_count"`
	Document      docJSON           `json:"document"`
}

func (c *Component) storageJSON(w http.ResponseWriter, r *http.Request) {
	st, err := c.deps.Sites.Stats(r.Context())
	if err != nil {
		component.WriteError(w, r, err)
		return
	}
	cols := st.Doc.Collections
	if cols == nil {
		cols = []string{}
	}
	component.WriteJSON(w, http.StatusOK, statsJSON{
		Policy:        st.Policy,
		RelationalOK:  st.RelationalOK,
		RelationalErr: st.RelationalErr,
		RowCount:      st.RowCount,
		Document: docJSON{
			Connected:   st.Doc.Connected,
			Database:    st.Doc.Database,
			URI:         st.Doc.URI,
			Collections: cols,
			Count:       st.Doc.Count,
			SampleID:    st.Doc.SampleID,
			Error:       st.Doc.Error,
		},
	})
}
