// internal/acl/store.go
//
// Small query helpers for role-based access control.
//
// Context
// -------
// Roles are granted per account email in one table:
//
//	user_role   (user_email, role)
//
// Middleware needs fast answers to two questions:
//  1. Which role names does user X have?          → `UserRoles()`
//  2. Does user X hold any of roles R1…Rn?        → `HasAnyRole()`
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package acl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// UserRoles returns the role names bound to email, sorted by name.
func UserRoles(ctx context.Context, db *sqlx.DB, email string) ([]string, error) {
	const q = `SELECT role
                 FROM user_role
                WHERE user_email = ?
                ORDER BY role`

	roles := make([]string, 0, 4)
	if err := db.SelectContext(ctx, &roles, q, email); err != nil {
		return nil, err
	}
	return roles, nil
}

// HasAnyRole reports whether email holds at least one of roles.  It runs one
// query using IN (? … ?).  An empty roles slice returns false, nil.
func HasAnyRole(ctx context.Context, db *sqlx.DB, email string, roles []string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	q, args, err := sqlx.In(`SELECT 1
            FROM user_role
           WHERE user_email = ?
             AND role IN (?)
           LIMIT 1`, email, roles)
	if err != nil {
		return false, err
	}

	var hit int
	err = db.QueryRowxContext(ctx, db.Rebind(q), args...).Scan(&hit)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Grant adds role to email.  Granting twice is a no-op.
func Grant(ctx context.Context, db *sqlx.DB, email, role string) error {
	_, err := db.ExecContext(ctx,
		`INSERT IGNORE INTO user_role (user_email, role) VALUES (?, ?)`, email, role)
	return err
}
