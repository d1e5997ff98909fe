package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/middleware"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/service"
)

const requestTimeout = 5 * time.Second

// requestCtx bounds a handler's storage work.
func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error body for err.  Dependency failures are
// logged and reported without detail.
func respondError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		logger.WithModule("http").Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(status, echo.Map{"error": se.Message, "code": se.Code})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": service.ErrInvalidInput.Code})
}

// bindAndValidate decodes the body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.New("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// parseOptionalID reads an optional positive integer query parameter.
func parseOptionalID(s string) (*uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	return &id, true
}

// currentUser returns the registered user RequireRegistered stored.
func currentUser(c echo.Context) (*model.User, error) {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return nil, service.ErrNotRegistered
	}
	return u, nil
}
