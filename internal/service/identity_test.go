package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/repository"
)

func TestIdentityService_Resolve(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	users.On("GetBySubject", ctx, "auth0|alice").Return(alice, nil)
	users.On("GetBySubject", ctx, "auth0|stranger").Return(nil, repository.ErrNotFound)
	users.On("GetBySubject", ctx, "auth0|flaky").Return(nil, errors.New("i/o timeout"))

	svc := NewIdentityService(users)

	u, err := svc.Resolve(ctx, "auth0|alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = svc.Resolve(ctx, "auth0|stranger")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = svc.Resolve(ctx, "auth0|flaky")
	assert.Equal(t, KindDependency, KindOf(err))

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentityService_Register(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	users.On("GetBySubject", ctx, "auth0|alice").Return(nil, repository.ErrNotFound).Once()
	users.On("Create", ctx, "auth0|alice", "alice", "alice@example.com").Return(alice, nil).Once()

	svc := NewIdentityService(users)
	u, err := svc.Register(ctx, auth.Identity{Subject: "auth0|alice"}, RegisterInput{Username: " alice ", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, alice, u)
	users.AssertExpectations(t)
}

func TestIdentityService_RegisterTwice(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	users.On("GetBySubject", ctx, "auth0|alice").Return(alice, nil)

	svc := NewIdentityService(users)
	_, err := svc.Register(ctx, auth.Identity{Subject: "auth0|alice"}, RegisterInput{Username: "alice", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentityService_RegisterLosesRace(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	users.On("GetBySubject", ctx, "auth0|alice").Return(nil, repository.ErrNotFound)
	users.On("Create", ctx, "auth0|alice", "alice", "a@example.com").Return(nil, repository.ErrSubjectExists)

	svc := NewIdentityService(users)
	_, err := svc.Register(ctx, auth.Identity{Subject: "auth0|alice"}, RegisterInput{Username: "alice", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestIdentityService_RegisterRequiresFields(t *testing.T) {
	svc := NewIdentityService(new(mockUserStore))
	_, err := svc.Register(context.Background(), auth.Identity{Subject: "auth0|alice"}, RegisterInput{Username: " ", Email: "a@example.com"})
	assert.Equal(t, KindValidation, KindOf(err))
}
