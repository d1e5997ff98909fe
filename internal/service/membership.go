package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/metrics"
	"github.com/iliyamo/household-ledger/internal/repository"
)

// MembershipStore answers the two questions MembershipGuard asks.
type MembershipStore interface {
	IsMember(ctx context.Context, householdID, userID uint64) (bool, error)
	GetCreatorID(ctx context.Context, householdID uint64) (uint64, error)
}

// MembershipGuard decides whether a user may act within a household.
// Every household-scoped operation calls it before touching household
// data; a denial is always an error, never an empty result.
type MembershipGuard struct {
	store MembershipStore
	log   *zap.Logger
}

func NewMembershipGuard(store MembershipStore) *MembershipGuard {
	return &MembershipGuard{store: store, log: logger.WithModule("guard")}
}

// Authorize reports whether userID holds a membership in householdID.
func (g *MembershipGuard) Authorize(ctx context.Context, userID, householdID uint64) (bool, error) {
	ok, err := g.store.IsMember(ctx, householdID, userID)
	if err != nil {
		metrics.GuardDecisions.WithLabelValues("member", "error").Inc()
		return false, dependency(err)
	}
	if ok {
		metrics.GuardDecisions.WithLabelValues("member", "allow").Inc()
	} else {
		metrics.GuardDecisions.WithLabelValues("member", "deny").Inc()
	}
	return ok, nil
}

// RequireMember returns ErrNotMember unless userID belongs to householdID.
func (g *MembershipGuard) RequireMember(ctx context.Context, userID, householdID uint64) error {
	ok, err := g.Authorize(ctx, userID, householdID)
	if err != nil {
		return err
	}
	if !ok {
		g.log.Debug("membership denied", zap.Uint64("user_id", userID), zap.Uint64("household_id", householdID))
		return ErrNotMember
	}
	return nil
}

// RequireCreator returns ErrHouseholdNotFound for an unknown household and
// ErrNotCreator unless userID created it.
func (g *MembershipGuard) RequireCreator(ctx context.Context, userID, householdID uint64) error {
	creatorID, err := g.store.GetCreatorID(ctx, householdID)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.GuardDecisions.WithLabelValues("creator", "deny").Inc()
		return ErrHouseholdNotFound
	}
	if err != nil {
		metrics.GuardDecisions.WithLabelValues("creator", "error").Inc()
		return dependency(err)
	}
	if creatorID != userID {
		metrics.GuardDecisions.WithLabelValues("creator", "deny").Inc()
		return ErrNotCreator
	}
	metrics.GuardDecisions.WithLabelValues("creator", "allow").Inc()
	return nil
}
