package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/household-ledger/internal/model"
)

// HouseholdService is what HouseholdHandler needs for households.
type HouseholdService interface {
	List(ctx context.Context, user *model.User) ([]model.Household, error)
	Create(ctx context.Context, user *model.User, name string) (*model.Household, error)
	Get(ctx context.Context, user *model.User, householdID uint64) (*model.Household, error)
	Members(ctx context.Context, user *model.User, householdID uint64) ([]model.Member, error)
}

// InviteService is what HouseholdHandler needs for invites.
type InviteService interface {
	Create(ctx context.Context, user *model.User, householdID uint64, expiresInDays *int) (*model.Invite, error)
	Redeem(ctx context.Context, user *model.User, code string) (*model.Household, error)
	ListActive(ctx context.Context, user *model.User, householdID uint64) ([]model.Invite, error)
}

type HouseholdHandler struct {
	Households HouseholdService
	Invites    InviteService
}

func NewHouseholdHandler(households HouseholdService, invites InviteService) *HouseholdHandler {
	return &HouseholdHandler{Households: households, Invites: invites}
}

type createHouseholdReq struct {
	Name string `json:"name" validate:"required,max=100"`
}

type createInviteReq struct {
	ExpiresInDays *int `json:"expires_in_days" validate:"omitempty,min=1,max=365"`
}

// List returns the caller's households.
func (h *HouseholdHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Households.List(ctx, user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Create makes a household with the caller as creator and first member.
func (h *HouseholdHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req createHouseholdReq
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Households.Create(ctx, user, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Get returns one household the caller belongs to.
func (h *HouseholdHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid household id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Households.Get(ctx, user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Members lists the members of a household the caller belongs to.
func (h *HouseholdHandler) Members(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid household id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Households.Members(ctx, user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateInvite mints an invite code.  Creator only.
func (h *HouseholdHandler) CreateInvite(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid household id")
	}
	var req createInviteReq
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Invites.Create(ctx, user, id, req.ExpiresInDays)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// ListInvites returns the household's active invites.  Creator only.
func (h *HouseholdHandler) ListInvites(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid household id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Invites.ListActive(ctx, user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Join redeems an invite code for the caller.
func (h *HouseholdHandler) Join(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Invites.Redeem(ctx, user, c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":   fmt.Sprintf("Successfully joined household '%s'", out.Name),
		"household": out,
	})
}
