package middleware

// identity.go defines the per-request identity values BearerAuth and
// RequireRegistered store in the Echo context, and the accessors handlers
// use to read them back and pass them explicitly into service calls.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/model"
)

const (
	identityKey = "identity"
	userKey     = "user"
)

// IdentityFrom returns the verified token identity, if any.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}

// UserFrom returns the registered application user, if any.
func UserFrom(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userKey).(*model.User)
	return u, ok && u != nil
}

// currentUserID returns the verified subject for keying, or "anon".
func currentUserID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.Subject != "" {
		return id.Subject
	}
	return "anon"
}
