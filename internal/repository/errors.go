// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors. For example, ErrMembershipExists signals that a
// (household, user) pair is already present, which the invite flow
// reports as "already a member".
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrSubjectExists is returned when a user row for the identity provider
// subject already exists.
var ErrSubjectExists = errors.New("subject already registered")

// ErrMembershipExists is returned when the user already belongs to the
// household.
var ErrMembershipExists = errors.New("membership already exists")

// ErrInviteCodeExists is returned when a freshly generated invite code
// collides with an existing one.
var ErrInviteCodeExists = errors.New("invite code already exists")

// ErrUnsafePredicate is returned by Compile when a predicate names a
// column or operator outside the whitelist.
var ErrUnsafePredicate = errors.New("predicate not allowed")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
