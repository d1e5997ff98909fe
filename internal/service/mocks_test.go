package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/queue"
	"github.com/iliyamo/household-ledger/internal/repository"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, subject, username, email string) (*model.User, error) {
	args := m.Called(ctx, subject, username, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserStore) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	args := m.Called(ctx, subject)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type mockHouseholdStore struct{ mock.Mock }

func (m *mockHouseholdStore) IsMember(ctx context.Context, householdID, userID uint64) (bool, error) {
	args := m.Called(ctx, householdID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockHouseholdStore) GetCreatorID(ctx context.Context, householdID uint64) (uint64, error) {
	args := m.Called(ctx, householdID)
	id, _ := args.Get(0).(uint64)
	return id, args.Error(1)
}

func (m *mockHouseholdStore) Create(ctx context.Context, name string, creatorID uint64) (*model.Household, error) {
	args := m.Called(ctx, name, creatorID)
	h, _ := args.Get(0).(*model.Household)
	return h, args.Error(1)
}

func (m *mockHouseholdStore) AddMember(ctx context.Context, householdID, userID uint64) (*model.Household, error) {
	args := m.Called(ctx, householdID, userID)
	h, _ := args.Get(0).(*model.Household)
	return h, args.Error(1)
}

func (m *mockHouseholdStore) GetSummary(ctx context.Context, householdID uint64) (*model.Household, error) {
	args := m.Called(ctx, householdID)
	h, _ := args.Get(0).(*model.Household)
	return h, args.Error(1)
}

func (m *mockHouseholdStore) ListForUser(ctx context.Context, userID uint64) ([]model.Household, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.Household)
	return out, args.Error(1)
}

func (m *mockHouseholdStore) ListMembers(ctx context.Context, householdID uint64) ([]model.Member, error) {
	args := m.Called(ctx, householdID)
	out, _ := args.Get(0).([]model.Member)
	return out, args.Error(1)
}

type mockInviteStore struct{ mock.Mock }

func (m *mockInviteStore) Create(ctx context.Context, householdID uint64, code string, expiresAt *time.Time) (*model.Invite, error) {
	args := m.Called(ctx, householdID, code, expiresAt)
	inv, _ := args.Get(0).(*model.Invite)
	return inv, args.Error(1)
}

func (m *mockInviteStore) GetByCode(ctx context.Context, code string) (*model.Invite, error) {
	args := m.Called(ctx, code)
	inv, _ := args.Get(0).(*model.Invite)
	return inv, args.Error(1)
}

func (m *mockInviteStore) ListActive(ctx context.Context, householdID uint64, now time.Time) ([]model.Invite, error) {
	args := m.Called(ctx, householdID, now)
	out, _ := args.Get(0).([]model.Invite)
	return out, args.Error(1)
}

type mockTransactionStore struct{ mock.Mock }

func (m *mockTransactionStore) Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, t)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *mockTransactionStore) GetByID(ctx context.Context, id uint64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *mockTransactionStore) Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, t)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *mockTransactionStore) Delete(ctx context.Context, id, userID uint64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockTransactionStore) List(ctx context.Context, f repository.TransactionFilter) ([]model.Transaction, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]model.Transaction)
	return out, args.Error(1)
}

func (m *mockTransactionStore) Points(ctx context.Context, f repository.TransactionFilter) ([]model.AmountPoint, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]model.AmountPoint)
	return out, args.Error(1)
}

func (m *mockTransactionStore) Categories(ctx context.Context, f repository.TransactionFilter) ([]string, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []queue.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var (
	alice = &model.User{ID: 7, Auth0ID: "auth0|alice", Username: "alice", Email: "alice@example.com"}
	bob   = &model.User{ID: 8, Auth0ID: "auth0|bob", Username: "bob", Email: "bob@example.com"}
)

func ptr[T any](v T) *T { return &v }

