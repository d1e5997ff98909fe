package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/logger"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/repository"
)

// UserStore is the persistence contract of IdentityService.
type UserStore interface {
	Create(ctx context.Context, subject, username, email string) (*model.User, error)
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
}

// IdentityService maps verified provider subjects to application users.
// It is the boundary between "authenticated" and "registered".
type IdentityService struct {
	users UserStore
	log   *zap.Logger
}

func NewIdentityService(users UserStore) *IdentityService {
	return &IdentityService{users: users, log: logger.WithModule("identity")}
}

// Resolve returns the user registered for subject, or ErrNotRegistered.
// It never creates a user.
func (s *IdentityService) Resolve(ctx context.Context, subject string) (*model.User, error) {
	u, err := s.users.GetBySubject(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, dependency(err)
	}
	return u, nil
}

// RegisterInput carries the profile fields supplied at registration.
type RegisterInput struct {
	Username string
	Email    string
}

// Register creates the user row for a verified identity. A concurrent
// second registration loses on the unique subject constraint and gets
// ErrAlreadyRegistered.
func (s *IdentityService) Register(ctx context.Context, id auth.Identity, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" {
		return nil, invalid("username and email are required")
	}

	if _, err := s.users.GetBySubject(ctx, id.Subject); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, dependency(err)
	}

	u, err := s.users.Create(ctx, id.Subject, username, email)
	if errors.Is(err, repository.ErrSubjectExists) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, dependency(err)
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID))
	return u, nil
}
