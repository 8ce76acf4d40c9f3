// internal/acl/store_test.go
//
// Unit-tests for acl helpers using sqlmock.
//
// Run: go test ./internal/acl -v

package acl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/sitecraft/internal/auth"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

const anyRoleQ = `SELECT 1 FROM user_role WHERE user_email = ? AND role IN (?, ?) LIMIT 1`

func TestUserRoles(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT role FROM user_role WHERE user_email = ? ORDER BY role`,
	)).
		WithArgs("owner@blueoak.test").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin").AddRow("editor"))

	got, err := UserRoles(context.Background(), db, "owner@blueoak.test")
	if err != nil {
		t.Fatalf("UserRoles error: %v", err)
	}
	if len(got) != 2 || got[0] != "admin" || got[1] != "editor" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestHasAnyRole(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(anyRoleQ)).
		WithArgs("owner@blueoak.test", "admin", "ops").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(anyRoleQ)).
		WithArgs("guest@blueoak.test", "admin", "ops").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := HasAnyRole(context.Background(), db, "owner@blueoak.test", []string{"admin", "ops"})
	if err != nil || !ok {
		t.Fatalf("HasAnyRole = %v, %v; want true", ok, err)
	}
	ok, err = HasAnyRole(context.Background(), db, "guest@blueoak.test", []string{"admin", "ops"})
	if err != nil || ok {
		t.Fatalf("HasAnyRole = %v, %v; want false", ok, err)
	}
	if ok, _ := HasAnyRole(context.Background(), db, "x", nil); ok {
		t.Fatal("empty roles must be false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestGrant(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT IGNORE INTO user_role (user_email, role) VALUES (?, ?)`)).
		WithArgs("owner@blueoak.test", "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := Grant(context.Background(), db, "owner@blueoak.test", "admin"); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	db, mock := newMock(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := RequireRole(db, "admin")(ok)

	// anonymous
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/storage", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d", w.Code)
	}

	q := regexp.QuoteMeta(`SELECT 1 FROM user_role WHERE user_email = ? AND role IN (?) LIMIT 1`)
	mock.ExpectQuery(q).WithArgs("admin@blueoak.test", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q).WithArgs("user@blueoak.test", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(q).WithArgs("err@blueoak.test", "admin").
		WillReturnError(errors.New("db down"))

	cases := []struct {
		email string
		want  int
	}{
		{"admin@blueoak.test", http.StatusTeapot},
		{"user@blueoak.test", http.StatusForbidden},
		{"err@blueoak.test", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/admin/storage", nil)
		r = r.WithContext(auth.WithEmail(r.Context(), tc.email))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != tc.want {
			t.Errorf("%s: got %d, want %d", tc.email, w.Code, tc.want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
