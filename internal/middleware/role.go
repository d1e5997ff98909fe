package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/service"
)

// IdentityResolver maps a verified subject to a registered user.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string) (*model.User, error)
}

// RequireRegistered returns a middleware that resolves the verified
// identity to an application user.  It must run after BearerAuth.  A
// subject without a user row is authenticated but not registered and gets
// 403, not 401.
func RequireRegistered(r IdentityResolver) echo.MiddlewareFunc {
	log := logger.WithModule("identity")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			u, err := r.Resolve(c.Request().Context(), id.Subject)
			if errors.Is(err, service.ErrNotRegistered) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": service.ErrNotRegistered.Message,
					"code":  service.ErrNotRegistered.Code,
				})
			}
			if err != nil {
				log.Error("identity lookup failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}
