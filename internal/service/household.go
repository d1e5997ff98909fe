package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/queue"
	"github.com/iliyamo/household-ledger/internal/repository"
)

// HouseholdStore persists households and memberships.
type HouseholdStore interface {
	MembershipStore
	Create(ctx context.Context, name string, creatorID uint64) (*model.Household, error)
	AddMember(ctx context.Context, householdID, userID uint64) (*model.Household, error)
	GetSummary(ctx context.Context, householdID uint64) (*model.Household, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Household, error)
	ListMembers(ctx context.Context, householdID uint64) ([]model.Member, error)
}

const maxHouseholdName = 100

type HouseholdService struct {
	store  HouseholdStore
	guard  *MembershipGuard
	events EventPublisher
	log    *zap.Logger
}

func NewHouseholdService(store HouseholdStore, guard *MembershipGuard, events EventPublisher) *HouseholdService {
	return &HouseholdService{store: store, guard: guard, events: events, log: logger.WithModule("household")}
}

// List returns the households user belongs to.
func (s *HouseholdService) List(ctx context.Context, user *model.User) ([]model.Household, error) {
	out, err := s.store.ListForUser(ctx, user.ID)
	return out, dependency(err)
}

// Create makes user the creator and first member of a new household.
func (s *HouseholdService) Create(ctx context.Context, user *model.User, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if len(name) > maxHouseholdName {
		return nil, invalid("name must be at most 100 characters")
	}
	h, err := s.store.Create(ctx, name, user.ID)
	if err != nil {
		return nil, dependency(err)
	}
	s.log.Info("household created", zap.Uint64("household_id", h.ID), zap.Uint64("user_id", user.ID))
	publish(ctx, s.events, s.log, queue.ActivityEvent{
		Type:          queue.EventHouseholdCreated,
		UserID:        user.ID,
		Username:      user.Username,
		HouseholdID:   &h.ID,
		HouseholdName: h.Name,
	})
	return h, nil
}

// Get returns a household the user belongs to.
func (s *HouseholdService) Get(ctx context.Context, user *model.User, householdID uint64) (*model.Household, error) {
	if err := s.guard.RequireMember(ctx, user.ID, householdID); err != nil {
		return nil, err
	}
	h, err := s.store.GetSummary(ctx, householdID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHouseholdNotFound
	}
	return h, dependency(err)
}

// Members lists the members of a household the user belongs to.
func (s *HouseholdService) Members(ctx context.Context, user *model.User, householdID uint64) ([]model.Member, error) {
	if err := s.guard.RequireMember(ctx, user.ID, householdID); err != nil {
		return nil, err
	}
	out, err := s.store.ListMembers(ctx, householdID)
	return out, dependency(err)
}
