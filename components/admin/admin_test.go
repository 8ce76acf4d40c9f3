package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sitecraft/internal/component"
	"github.com/yanizio/sitecraft/internal/component/componenttest"
	"github.com/yanizio/sitecraft/internal/site"
)

var (
	roleQ  = regexp.QuoteMeta(`SELECT 1 FROM user_role WHERE user_email = ? AND role IN (?) LIMIT 1`)
	rolesQ = regexp.QuoteMeta(`SELECT role FROM user_role WHERE user_email = ? ORDER BY role`)
)

func setup(t *testing.T) (*componenttest.Kit, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kit := componenttest.New(t, componenttest.Options{
		Components: []component.Component{&Component{}},
		DB:         sqlx.NewDb(db, "mysql"),
	})
	kit.Sites.StatsValue = site.Stats{
		RelationalOK: true,
		RowCount:     12,
		Doc: site.DocStats{
			Connected:   true,
			Database:    "ai_builder_db",
			URI:         "mongodb://admin:s3cr...",
			Collections: []string{"websites_collection"},
			Count:       11,
			SampleID:    "65f0c0ffee0000000000beef",
		},
	}
	return kit, mock
}

func TestStorageForAdmin(t *testing.T) {
	kit, mock := setup(t)
	mock.ExpectQuery(roleQ).WithArgs("ops@blueoak.test", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(rolesQ).WithArgs("ops@blueoak.test").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	rec := kit.Do(componenttest.Get("/admin/storage", kit.Login(t, "ops@blueoak.test")))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "12 websites")
	assert.Contains(t, body, "mongodb://admin:s3cr...")
	assert.Contains(t, body, "websites_collection")
	assert.Contains(t, body, "65f0c0ffee0000000000beef")
	assert.Contains(t, body, "<code>canonical</code>")
	assert.Contains(t, body, "Your roles: admin")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageJSON(t *testing.T) {
	kit, mock := setup(t)
	kit.Sites.StatsValue.Doc = site.DocStats{URI: "Not configured", Error: "document store not configured"}
	mock.ExpectQuery(roleQ).WithArgs("ops@blueoak.test", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec := kit.Do(componenttest.Get("/admin/storage.json", kit.Login(t, "ops@blueoak.test")))
	require.Equal(t, http.StatusOK, rec.Code)
	var out statsJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, site.MirrorCanonical, out.Policy)
	assert.EqualValues(t, 12, out.RowCount)
	assert.False(t, out.Document.Connected)
	assert.Equal(t, "document store not configured", out.Document.Error)
	assert.NotNil(t, out.Document.Collections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageDenied(t *testing.T) {
	kit, mock := setup(t)

	rec := kit.Do(componenttest.Get("/admin/storage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "anonymous")

	mock.ExpectQuery(roleQ).WithArgs("user@blueoak.test", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	rec = kit.Do(componenttest.Get("/admin/storage", kit.Login(t, "user@blueoak.test")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mock.ExpectQuery(roleQ).WithArgs("user@blueoak.test", "admin").
		WillReturnError(errors.New("db down"))
	rec = kit.Do(componenttest.Get("/admin/storage", kit.Login(t, "user@blueoak.test")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitNeedsDB(t *testing.T) {
	err := (&Component{}).Init(component.Deps{})
	assert.Error(t, err)
}
