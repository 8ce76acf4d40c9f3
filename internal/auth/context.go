// internal/auth/context.go
//
// Request-scoped identity helpers.
//
// Usage
// -----
//     // Attach the verified email after the gate or bearer check.
//     ctx = auth.WithEmail(ctx, "owner@blueoak.test")
//
//     // Downstream code retrieves it.
//     email, ok := auth.Email(ctx)   // "owner@blueoak.test", true
//
// Notes
// -----
// • The email is the only identity the token carries, so it doubles as
//   the owner key for website records and the ACL lookup key.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// emailKey is unexported to avoid context-key collisions.
type emailKey struct{}

// WithEmail returns a new context carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey{}, email)
}

// Email extracts the authenticated email from ctx.  It returns ("", false)
// if no identity is set.
func Email(ctx context.Context) (string, bool) {
	e, ok := ctx.Value(emailKey{}).(string)
	return e, ok && e != ""
}
