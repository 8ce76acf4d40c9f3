// internal/credential/store_test.go
//
// Unit-tests for the credential store using sqlmock.
//
// Run: go test ./internal/credential -v

package credential

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/token"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock, *token.Issuer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	iss, err := token.New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	return New(sqlx.NewDb(db, "sqlmock"), iss).WithCost(bcrypt.MinCost), mock, iss
}

const (
	qCount  = "SELECT COUNT(*) FROM `user` WHERE email = ?"
	qInsert = "INSERT INTO `user` (email, password) VALUES (?, ?)"
	qSelect = "SELECT id, email, password FROM `user` WHERE email = ? LIMIT 1"
)

func TestRegisterNormalizesEmail(t *testing.T) {
	s, mock, _ := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qCount)).
		WithArgs("owner@blueoak.test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(qInsert)).
		WithArgs("owner@blueoak.test", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Register(context.Background(), "  Owner@BlueOak.test ", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegisterDuplicateDoesNotInsert(t *testing.T) {
	s, mock, _ := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qCount)).
		WithArgs("a@b.test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := s.Register(context.Background(), "a@b.test", "pw")
	if !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegisterRaceMapsUniqueViolation(t *testing.T) {
	s, mock, _ := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qCount)).
		WithArgs("a@b.test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(qInsert)).
		WithArgs("a@b.test", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := s.Register(context.Background(), "a@b.test", "pw")
	if !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	s, mock, _ := newStore(t)

	for _, tc := range []struct{ email, pw string }{
		{"", "pw"}, {"a@b.test", ""}, {"   ", "pw"},
	} {
		err := s.Register(context.Background(), tc.email, tc.pw)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Register(%q, %q) = %v, want ErrValidation", tc.email, tc.pw, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s, mock, iss := newStore(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	mock.ExpectQuery(regexp.QuoteMeta(qSelect)).
		WithArgs("owner@blueoak.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}).
			AddRow(7, "owner@blueoak.test", string(hash)))

	tok, err := s.Authenticate(context.Background(), "Owner@BlueOak.test", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	email, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if email != "owner@blueoak.test" {
		t.Fatalf("email = %q", email)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	s, mock, _ := newStore(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	mock.ExpectQuery(regexp.QuoteMeta(qSelect)).
		WithArgs("a@b.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}).
			AddRow(1, "a@b.test", string(hash)))

	_, err := s.Authenticate(context.Background(), "a@b.test", "nope")
	if !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	s, mock, _ := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(qSelect)).
		WithArgs("ghost@b.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}))

	_, err := s.Authenticate(context.Background(), "ghost@b.test", "pw")
	if !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
