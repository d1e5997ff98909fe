package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/queue"
	"github.com/iliyamo/household-ledger/internal/repository"
)

// TransactionStore persists transactions and runs scoped reads.
type TransactionStore interface {
	Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id uint64) (*model.Transaction, error)
	Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, id, userID uint64) error
	List(ctx context.Context, f repository.TransactionFilter) ([]model.Transaction, error)
	Points(ctx context.Context, f repository.TransactionFilter) ([]model.AmountPoint, error)
	Categories(ctx context.Context, f repository.TransactionFilter) ([]string, error)
}

const (
	maxDescription = 255
	maxCategory    = 50
)

// maxAmount bounds amounts to what DECIMAL(12,2) can hold.
var maxAmount = decimal.RequireFromString("9999999999.99")

// TransactionInput is the writable part of a transaction.
type TransactionInput struct {
	Amount      decimal.Decimal
	Date        string
	Description string
	Category    *string
	HouseholdID *uint64
}

// Query selects the scope and range of a read. Dates are YYYY-MM-DD and
// empty means unbounded. Category only affects listing.
type Query struct {
	HouseholdID *uint64
	StartDate   string
	EndDate     string
	Category    string
}

type TransactionService struct {
	store  TransactionStore
	guard  *MembershipGuard
	events EventPublisher
	log    *zap.Logger
}

func NewTransactionService(store TransactionStore, guard *MembershipGuard, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, guard: guard, events: events, log: logger.WithModule("transaction")}
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(repository.DateLayout, s)
	if err != nil {
		return nil, wrap(ErrInvalidDate, err)
	}
	return &t, nil
}

// filter builds the read filter for user. A household scope is only
// returned after the membership check passed.
func (s *TransactionService) filter(ctx context.Context, user *model.User, q Query) (repository.TransactionFilter, error) {
	f := repository.TransactionFilter{UserID: user.ID, Category: strings.TrimSpace(q.Category)}
	var err error
	if f.Start, err = parseDate(q.StartDate); err != nil {
		return f, err
	}
	if f.End, err = parseDate(q.EndDate); err != nil {
		return f, err
	}
	if q.HouseholdID != nil {
		if err := s.guard.RequireMember(ctx, user.ID, *q.HouseholdID); err != nil {
			return f, err
		}
		hh := *q.HouseholdID
		f.HouseholdID = &hh
	}
	return f, nil
}

func (s *TransactionService) normalize(ctx context.Context, user *model.User, in TransactionInput) (*model.Transaction, error) {
	d, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, invalid("date is required")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, invalid("description is required")
	}
	if len(desc) > maxDescription {
		return nil, invalid("description must be at most 255 characters")
	}
	if in.Amount.Abs().GreaterThan(maxAmount) {
		return nil, invalid("amount out of range")
	}
	var category *string
	if in.Category != nil {
		if c := strings.TrimSpace(*in.Category); c != "" {
			if len(c) > maxCategory {
				return nil, invalid("category must be at most 50 characters")
			}
			category = &c
		}
	}
	// Household 0 is a personal transaction.
	household := in.HouseholdID
	if household != nil && *household == 0 {
		household = nil
	}
	if household != nil {
		if err := s.guard.RequireMember(ctx, user.ID, *household); err != nil {
			return nil, err
		}
	}
	return &model.Transaction{
		UserID:      user.ID,
		Amount:      in.Amount.Round(2),
		Date:        d.Format(repository.DateLayout),
		Description: desc,
		Category:    category,
		HouseholdID: household,
	}, nil
}

// Create records a transaction for user. A household id requires
// membership in that household.
func (s *TransactionService) Create(ctx context.Context, user *model.User, in TransactionInput) (*model.Transaction, error) {
	t, err := s.normalize(ctx, user, in)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Create(ctx, t)
	if err != nil {
		return nil, dependency(err)
	}
	ev := queue.ActivityEvent{
		Type:          queue.EventTransactionRecorded,
		UserID:        user.ID,
		Username:      user.Username,
		HouseholdID:   out.HouseholdID,
		TransactionID: out.ID,
		Amount:        out.Amount.StringFixed(2),
	}
	if out.Category != nil {
		ev.Category = *out.Category
	}
	publish(ctx, s.events, s.log, ev)
	return out, nil
}

// List returns the transactions in scope, newest first.
func (s *TransactionService) List(ctx context.Context, user *model.User, q Query) ([]model.Transaction, error) {
	f, err := s.filter(ctx, user, q)
	if err != nil {
		return nil, err
	}
	out, err := s.store.List(ctx, f)
	return out, dependency(err)
}

// Summary aggregates the transactions in scope by period and reports the
// period it used. An unknown period fails before any authorization or
// storage call.
func (s *TransactionService) Summary(ctx context.Context, user *model.User, period string, q Query) (*model.Summary, error) {
	p, ok := repository.ParsePeriod(strings.TrimSpace(period))
	if !ok {
		return nil, ErrInvalidPeriod
	}
	f, err := s.filter(ctx, user, q)
	if err != nil {
		return nil, err
	}
	points, err := s.store.Points(ctx, f)
	if err != nil {
		return nil, dependency(err)
	}
	return &model.Summary{Period: string(p), Buckets: Summarize(points, p)}, nil
}

// Categories returns the categories used in scope merged with the
// defaults.
func (s *TransactionService) Categories(ctx context.Context, user *model.User, householdID *uint64) ([]string, error) {
	f, err := s.filter(ctx, user, Query{HouseholdID: householdID})
	if err != nil {
		return nil, err
	}
	used, err := s.store.Categories(ctx, f)
	if err != nil {
		return nil, dependency(err)
	}
	return mergeCategories(used), nil
}

// Get returns a transaction the user owns or that is shared with a
// household the user belongs to.
func (s *TransactionService) Get(ctx context.Context, user *model.User, id uint64) (*model.Transaction, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID == user.ID {
		return t, nil
	}
	if t.HouseholdID == nil {
		return nil, ErrNotOwner
	}
	if err := s.guard.RequireMember(ctx, user.ID, *t.HouseholdID); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the writable fields of a transaction. Only the owner
// may update, and moving it into a household re-checks membership.
func (s *TransactionService) Update(ctx context.Context, user *model.User, id uint64, in TransactionInput) (*model.Transaction, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.UserID != user.ID {
		return nil, ErrNotOwner
	}
	t, err := s.normalize(ctx, user, in)
	if err != nil {
		return nil, err
	}
	t.ID = id
	out, err := s.store.Update(ctx, t)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	return out, dependency(err)
}

// Delete removes a transaction owned by user.
func (s *TransactionService) Delete(ctx context.Context, user *model.User, id uint64) error {
	cur, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if cur.UserID != user.ID {
		return ErrNotOwner
	}
	err = s.store.Delete(ctx, id, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTransactionNotFound
	}
	return dependency(err)
}

func (s *TransactionService) load(ctx context.Context, id uint64) (*model.Transaction, error) {
	t, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, dependency(err)
	}
	return t, nil
}
