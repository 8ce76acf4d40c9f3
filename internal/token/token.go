// internal/token/token.go
//
// Signed session tokens.
//
// Context
// -------
// A successful login yields an HS256 JWT carrying the user's email.  The
// web UI keeps it in server-side session state; the JSON API receives it
// back in `Authorization: Bearer …`.  Either way Verify is the single
// decision point.
//
// Expiry
// ------
// When the issuer has a positive TTL the token carries `exp` and the
// parser enforces it.  A zero TTL issues tokens with no `exp`, which
// verify forever; keep that for compatibility with tokens minted before
// expiry was introduced, not for new deployments.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yanizio/sitecraft/internal/apperr"
)

// Claims embeds the user's email alongside the registered claims.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with one server secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New returns an Issuer.  secret must be non-empty.
func New(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: empty signing secret")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for email.
func (i *Issuer) Issue(email string) (string, error) {
	now := i.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  email,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify decodes tok and returns the embedded email.  Any decode, method,
// signature, or expiry failure maps to apperr.ErrInvalidCredentials.
func (i *Issuer) Verify(tok string) (string, error) {
	if tok == "" {
		return "", fmt.Errorf("empty token: %w", apperr.ErrInvalidCredentials)
	}
	parsed, err := jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("token: %v: %w", err, apperr.ErrInvalidCredentials)
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || c.Email == "" {
		return "", fmt.Errorf("token claims: %w", apperr.ErrInvalidCredentials)
	}
	return c.Email, nil
}
