package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/service"
)

// TransactionService is what TransactionHandler needs.
type TransactionService interface {
	Create(ctx context.Context, user *model.User, in service.TransactionInput) (*model.Transaction, error)
	List(ctx context.Context, user *model.User, q service.Query) ([]model.Transaction, error)
	Summary(ctx context.Context, user *model.User, period string, q service.Query) (*model.Summary, error)
	Categories(ctx context.Context, user *model.User, householdID *uint64) ([]string, error)
	Get(ctx context.Context, user *model.User, id uint64) (*model.Transaction, error)
	Update(ctx context.Context, user *model.User, id uint64, in service.TransactionInput) (*model.Transaction, error)
	Delete(ctx context.Context, user *model.User, id uint64) error
}

type TransactionHandler struct {
	Transactions TransactionService
}

func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{Transactions: transactions}
}

type transactionReq struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Date        string           `json:"date" validate:"required,datetime=2006-01-02"`
	Description string           `json:"description" validate:"required,max=255"`
	Category    *string          `json:"category" validate:"omitempty,max=50"`
	HouseholdID *uint64          `json:"household_id"`
}

func (r transactionReq) input() service.TransactionInput {
	return service.TransactionInput{
		Amount:      *r.Amount,
		Date:        r.Date,
		Description: r.Description,
		Category:    r.Category,
		HouseholdID: r.HouseholdID,
	}
}

// query reads the shared scope and range parameters.
func query(c echo.Context) (service.Query, bool) {
	hh, ok := parseOptionalID(c.QueryParam("household_id"))
	if !ok {
		return service.Query{}, false
	}
	return service.Query{
		HouseholdID: hh,
		StartDate:   c.QueryParam("start_date"),
		EndDate:     c.QueryParam("end_date"),
		Category:    c.QueryParam("category"),
	}, true
}

// Create records a transaction for the caller.
func (h *TransactionHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req transactionReq
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Transactions.Create(ctx, user, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// List returns transactions in the requested scope.
func (h *TransactionHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	q, ok := query(c)
	if !ok {
		return badRequest(c, "invalid household_id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Transactions.List(ctx, user, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Summary aggregates transactions by period.  An absent period means
// monthly; a present but blank one is rejected.
func (h *TransactionHandler) Summary(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	q, ok := query(c)
	if !ok {
		return badRequest(c, "invalid household_id")
	}
	q.Category = ""
	period := c.QueryParam("period")
	if _, given := c.QueryParams()["period"]; given && strings.TrimSpace(period) == "" {
		return respondError(c, service.ErrInvalidPeriod)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Transactions.Summary(ctx, user, period, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Categories lists categories in scope merged with the defaults.
func (h *TransactionHandler) Categories(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	hh, ok := parseOptionalID(c.QueryParam("household_id"))
	if !ok {
		return badRequest(c, "invalid household_id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Transactions.Categories(ctx, user, hh)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one visible transaction.
func (h *TransactionHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid transaction id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Transactions.Get(ctx, user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Update replaces a transaction owned by the caller.
func (h *TransactionHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid transaction id")
	}
	var req transactionReq
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Transactions.Update(ctx, user, id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Delete removes a transaction owned by the caller.
func (h *TransactionHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid transaction id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Transactions.Delete(ctx, user, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
