package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/middleware"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/service"
)

// IdentityService is what AuthHandler needs from the identity layer.
type IdentityService interface {
	Resolve(ctx context.Context, subject string) (*model.User, error)
	Register(ctx context.Context, id auth.Identity, in service.RegisterInput) (*model.User, error)
}

// AuthHandler serves registration and the caller's profile.  Both routes
// sit behind BearerAuth only, because the caller may not be registered yet.
type AuthHandler struct {
	Identity IdentityService
}

func NewAuthHandler(identity IdentityService) *AuthHandler {
	return &AuthHandler{Identity: identity}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

// Register creates the application user for the verified subject.
func (h *AuthHandler) Register(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Identity.Register(ctx, id, service.RegisterInput{Username: req.Username, Email: req.Email})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Me returns the caller's user record, or 404 when the verified subject
// never registered.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Identity.Resolve(ctx, id.Subject)
	if errors.Is(err, service.ErrNotRegistered) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": service.ErrNotRegistered.Message, "code": service.ErrNotRegistered.Code})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
