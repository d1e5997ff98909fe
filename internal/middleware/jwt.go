package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/metrics"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*auth.Claims, error)
}

// BearerAuth returns an Echo middleware that extracts and verifies the
// bearer token and stores the resulting auth.Identity in the context.  Any
// failure short-circuits with 401 and the classified reason; the token
// itself is never logged.
func BearerAuth(v TokenVerifier) echo.MiddlewareFunc {
	log := logger.WithModule("auth")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verifyRequest(c, v)
			if err != nil {
				reason := auth.ReasonOf(err)
				metrics.AuthFailures.WithLabelValues(string(reason)).Inc()
				log.Info("bearer token rejected",
					zap.String("reason", string(reason)),
					zap.String("path", c.Path()),
					zap.Error(err))
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer error="invalid_token"`)
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":  auth.MessageOf(err),
					"reason": reason,
				})
			}
			metrics.AuthSuccesses.Inc()
			c.Set(identityKey, auth.Identity{Subject: claims.Subject, Claims: claims})
			return next(c)
		}
	}
}

func verifyRequest(c echo.Context, v TokenVerifier) (*auth.Claims, error) {
	raw, err := auth.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return v.Verify(c.Request().Context(), raw)
}
