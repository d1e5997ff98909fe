package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/metrics"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/queue"
	"github.com/iliyamo/household-ledger/internal/repository"
	"github.com/iliyamo/household-ledger/internal/utils"
)

// InviteStore persists invite codes.
type InviteStore interface {
	Create(ctx context.Context, householdID uint64, code string, expiresAt *time.Time) (*model.Invite, error)
	GetByCode(ctx context.Context, code string) (*model.Invite, error)
	ListActive(ctx context.Context, householdID uint64, now time.Time) ([]model.Invite, error)
}

const (
	DefaultInviteDays = 7
	MaxInviteDays     = 365
	InviteCodeLength  = 8
	maxCodeAttempts   = 5
)

// InviteService issues and redeems household invite codes. A code admits
// any number of distinct users while it is active and unexpired; each
// user can join through it once.
type InviteService struct {
	invites    InviteStore
	households HouseholdStore
	guard      *MembershipGuard
	events     EventPublisher
	log        *zap.Logger

	newCode func() (string, error)
	now     func() time.Time
}

func NewInviteService(invites InviteStore, households HouseholdStore, guard *MembershipGuard, events EventPublisher) *InviteService {
	return &InviteService{
		invites:    invites,
		households: households,
		guard:      guard,
		events:     events,
		log:        logger.WithModule("invite"),
		newCode:    func() (string, error) { return utils.RandomCode(InviteCodeLength) },
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create mints an invite for householdID. Only the creator may do this.
// expiresInDays nil means DefaultInviteDays; otherwise it must be within
// 1..MaxInviteDays. Code collisions are retried with a fresh code.
func (s *InviteService) Create(ctx context.Context, user *model.User, householdID uint64, expiresInDays *int) (*model.Invite, error) {
	days := DefaultInviteDays
	if expiresInDays != nil {
		days = *expiresInDays
	}
	if days < 1 || days > MaxInviteDays {
		return nil, ErrInvalidExpiry
	}
	if err := s.guard.RequireCreator(ctx, user.ID, householdID); err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(time.Duration(days) * 24 * time.Hour)
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, dependency(err)
		}
		inv, err := s.invites.Create(ctx, householdID, code, &expiresAt)
		if errors.Is(err, repository.ErrInviteCodeExists) {
			s.log.Debug("invite code collision", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, dependency(err)
		}
		s.log.Info("invite created", zap.Uint64("household_id", householdID), zap.Uint64("invite_id", inv.ID))
		return inv, nil
	}
	return nil, ErrCodeCollision
}

// Redeem adds user to the household behind code. Checks run in order:
// unknown code, expiry (regardless of the active flag), active flag,
// existing membership.
func (s *InviteService) Redeem(ctx context.Context, user *model.User, code string) (*model.Household, error) {
	h, err := s.redeem(ctx, user, code)
	outcome := "joined"
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			outcome = se.Code
		} else {
			outcome = "error"
		}
	}
	metrics.InviteRedemptions.WithLabelValues(outcome).Inc()
	return h, err
}

func (s *InviteService) redeem(ctx context.Context, user *model.User, code string) (*model.Household, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInviteNotFound
	}
	inv, err := s.invites.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, dependency(err)
	}
	if inv.Expired(s.now()) {
		return nil, ErrInviteExpired
	}
	if !inv.IsActive {
		return nil, ErrInviteInactive
	}

	member, err := s.guard.Authorize(ctx, user.ID, inv.HouseholdID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	h, err := s.households.AddMember(ctx, inv.HouseholdID, user.ID)
	if errors.Is(err, repository.ErrMembershipExists) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, dependency(err)
	}
	s.log.Info("invite redeemed", zap.Uint64("household_id", h.ID), zap.Uint64("user_id", user.ID))
	publish(ctx, s.events, s.log, queue.ActivityEvent{
		Type:          queue.EventMemberJoined,
		UserID:        user.ID,
		Username:      user.Username,
		HouseholdID:   &h.ID,
		HouseholdName: h.Name,
	})
	return h, nil
}

// ListActive returns the household's redeemable invites. Creator only.
func (s *InviteService) ListActive(ctx context.Context, user *model.User, householdID uint64) ([]model.Invite, error) {
	if err := s.guard.RequireCreator(ctx, user.ID, householdID); err != nil {
		return nil, err
	}
	out, err := s.invites.ListActive(ctx, householdID, s.now())
	return out, dependency(err)
}
