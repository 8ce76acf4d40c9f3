// internal/credential/store.go
//
// Credential store: email + bcrypt hash rows in the `user` table.
//
// Context
// -------
// Two operations matter to the rest of the app:
//
//  1. Register      → new row, or ErrDuplicateEmail with no mutation.
//  2. Authenticate  → signed token, or ErrInvalidCredentials.
//
// Emails are trimmed and lower-cased before every query so "Owner@X.com"
// and "owner@x.com" are the same account.  The unique key on `user.email`
// backs up the pre-insert existence check when two signups race.
package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/sitecraft/internal/apperr"
	"github.com/yanizio/sitecraft/internal/metrics"
	"github.com/yanizio/sitecraft/internal/token"
)

// mysqlDuplicateKey is ER_DUP_ENTRY.
const mysqlDuplicateKey = 1062

// Credential mirrors one row of `user`.
type Credential struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password"`
}

// Store reads and writes credentials.
type Store struct {
	db     *sqlx.DB
	tokens *token.Issuer
	cost   int
}

// New returns a Store hashing with bcrypt.DefaultCost.
func New(db *sqlx.DB, tokens *token.Issuer) *Store {
	return &Store{db: db, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func (s *Store) WithCost(cost int) *Store {
	s.cost = cost
	return s
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register stores a new credential.  A taken email yields
// apperr.ErrDuplicateEmail and leaves the table untouched.
func (s *Store) Register(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password required: %w", apperr.ErrValidation)
	}

	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM `user` WHERE email = ?", email); err != nil {
		return err
	}
	if count > 0 {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "duplicate").Inc()
		return fmt.Errorf("register %s: %w", email, apperr.ErrDuplicateEmail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO `user` (email, password) VALUES (?, ?)", email, string(hash))
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateKey {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "duplicate").Inc()
		return fmt.Errorf("register %s: %w", email, apperr.ErrDuplicateEmail)
	}
	if err != nil {
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("register", "ok").Inc()
	return nil
}

// Authenticate checks email/password and returns a signed session token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	var c Credential
	err := s.db.GetContext(ctx, &c,
		"SELECT id, email, password FROM `user` WHERE email = ? LIMIT 1", email)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "denied").Inc()
		return "", fmt.Errorf("login %s: %w", email, apperr.ErrInvalidCredentials)
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "denied").Inc()
		return "", fmt.Errorf("login %s: %w", email, apperr.ErrInvalidCredentials)
	}

	tok, err := s.tokens.Issue(c.Email)
	if err != nil {
		return "", err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()
	return tok, nil
}

// Count returns the number of registered users (diagnostics).
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM `user`")
	return n, err
}
