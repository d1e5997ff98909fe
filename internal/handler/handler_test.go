package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/household-ledger/internal/auth"
	"github.com/iliyamo/household-ledger/internal/handler"
	"github.com/iliyamo/household-ledger/internal/model"
	"github.com/iliyamo/household-ledger/internal/router"
	"github.com/iliyamo/household-ledger/internal/service"
)

const subject = "auth0|alice"

var alice = &model.User{ID: 7, Auth0ID: subject, Username: "alice", Email: "alice@example.com"}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, raw string) (*auth.Claims, error) {
	if raw != "good" {
		return nil, auth.ErrTokenExpired
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}, nil
}

type identityMock struct{ mock.Mock }

func (m *identityMock) Resolve(ctx context.Context, sub string) (*model.User, error) {
	args := m.Called(ctx, sub)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *identityMock) Register(ctx context.Context, id auth.Identity, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type householdMock struct{ mock.Mock }

func (m *householdMock) List(ctx context.Context, u *model.User) ([]model.Household, error) {
	args := m.Called(ctx, u)
	out, _ := args.Get(0).([]model.Household)
	return out, args.Error(1)
}

func (m *householdMock) Create(ctx context.Context, u *model.User, name string) (*model.Household, error) {
	args := m.Called(ctx, u, name)
	out, _ := args.Get(0).(*model.Household)
	return out, args.Error(1)
}

func (m *householdMock) Get(ctx context.Context, u *model.User, id uint64) (*model.Household, error) {
	args := m.Called(ctx, u, id)
	out, _ := args.Get(0).(*model.Household)
	return out, args.Error(1)
}

func (m *householdMock) Members(ctx context.Context, u *model.User, id uint64) ([]model.Member, error) {
	args := m.Called(ctx, u, id)
	out, _ := args.Get(0).([]model.Member)
	return out, args.Error(1)
}

type inviteMock struct{ mock.Mock }

func (m *inviteMock) Create(ctx context.Context, u *model.User, id uint64, days *int) (*model.Invite, error) {
	args := m.Called(ctx, u, id, days)
	out, _ := args.Get(0).(*model.Invite)
	return out, args.Error(1)
}

func (m *inviteMock) Redeem(ctx context.Context, u *model.User, code string) (*model.Household, error) {
	args := m.Called(ctx, u, code)
	out, _ := args.Get(0).(*model.Household)
	return out, args.Error(1)
}

func (m *inviteMock) ListActive(ctx context.Context, u *model.User, id uint64) ([]model.Invite, error) {
	args := m.Called(ctx, u, id)
	out, _ := args.Get(0).([]model.Invite)
	return out, args.Error(1)
}

type transactionMock struct{ mock.Mock }

func (m *transactionMock) Create(ctx context.Context, u *model.User, in service.TransactionInput) (*model.Transaction, error) {
	args := m.Called(ctx, u, in)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *transactionMock) List(ctx context.Context, u *model.User, q service.Query) ([]model.Transaction, error) {
	args := m.Called(ctx, u, q)
	out, _ := args.Get(0).([]model.Transaction)
	return out, args.Error(1)
}

func (m *transactionMock) Summary(ctx context.Context, u *model.User, period string, q service.Query) (*model.Summary, error) {
	args := m.Called(ctx, u, period, q)
	out, _ := args.Get(0).(*model.Summary)
	return out, args.Error(1)
}

func (m *transactionMock) Categories(ctx context.Context, u *model.User, hh *uint64) ([]string, error) {
	args := m.Called(ctx, u, hh)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *transactionMock) Get(ctx context.Context, u *model.User, id uint64) (*model.Transaction, error) {
	args := m.Called(ctx, u, id)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *transactionMock) Update(ctx context.Context, u *model.User, id uint64, in service.TransactionInput) (*model.Transaction, error) {
	args := m.Called(ctx, u, id, in)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *transactionMock) Delete(ctx context.Context, u *model.User, id uint64) error {
	return m.Called(ctx, u, id).Error(0)
}

type fixture struct {
	e            *echo.Echo
	identity     *identityMock
	households   *householdMock
	invites      *inviteMock
	transactions *transactionMock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		e:            echo.New(),
		identity:     &identityMock{},
		households:   &householdMock{},
		invites:      &inviteMock{},
		transactions: &transactionMock{},
	}
	f.e.Validator = handler.NewValidator()

	guards := router.Guards{Verifier: fakeVerifier{}, Resolver: f.identity}
	router.RegisterRoutes(f.e)
	router.RegisterAuth(f.e, handler.NewAuthHandler(f.identity), guards)
	router.RegisterHouseholds(f.e, handler.NewHouseholdHandler(f.households, f.invites), guards)
	router.RegisterTransactions(f.e, handler.NewTransactionHandler(f.transactions), guards,
		func(next echo.HandlerFunc) echo.HandlerFunc { return next })

	t.Cleanup(func() {
		f.identity.AssertExpectations(t)
		f.households.AssertExpectations(t)
		f.invites.AssertExpectations(t)
		f.transactions.AssertExpectations(t)
	})
	return f
}

// registered makes the caller resolve to alice.
func (f *fixture) registered() {
	f.identity.On("Resolve", mock.Anything, subject).Return(alice, nil)
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAPI_RejectsBadToken(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/households", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(auth.ReasonTokenExpired), decodeBody(t, rec)["reason"])
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.identity.On("Register", mock.Anything, mock.MatchedBy(func(id auth.Identity) bool { return id.Subject == subject }),
		service.RegisterInput{Username: "alice", Email: "alice@example.com"}).Return(alice, nil)

	rec := f.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "auth0_id")
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "email must be a valid email")

	f.identity.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrAlreadyRegistered)
	rec = f.do(http.MethodPost, "/api/auth/register", `{"username":"alice","email":"alice@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_registered", decodeBody(t, rec)["code"])
}

func TestMe(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		rec := f.do(http.MethodGet, "/api/auth/me", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice@example.com", decodeBody(t, rec)["email"])
	})
	t.Run("unregistered is 404", func(t *testing.T) {
		f := newFixture(t)
		f.identity.On("Resolve", mock.Anything, subject).Return(nil, service.ErrNotRegistered)
		rec := f.do(http.MethodGet, "/api/auth/me", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_registered", decodeBody(t, rec)["code"])
	})
}

func TestHouseholds_UnregisteredCallerIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.identity.On("Resolve", mock.Anything, subject).Return(nil, service.ErrNotRegistered)

	rec := f.do(http.MethodGet, "/api/households", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHouseholds_Create(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.households.On("Create", mock.Anything, alice, "Flat 4").
		Return(&model.Household{ID: 3, Name: "Flat 4", CreatorID: 7}, nil)

	rec := f.do(http.MethodPost, "/api/households", `{"name":"Flat 4"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 3, decodeBody(t, rec)["id"])

	rec = f.do(http.MethodPost, "/api/households", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHouseholds_GetMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not member", service.ErrNotMember, http.StatusForbidden},
		{"missing", service.ErrHouseholdNotFound, http.StatusNotFound},
		{"storage", storageFailure(), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.registered()
			f.households.On("Get", mock.Anything, alice, uint64(3)).Return(nil, tc.err)

			rec := f.do(http.MethodGet, "/api/households/3", "")
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusInternalServerError {
				assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
			}
		})
	}
}

func storageFailure() error {
	return errors.New("dial tcp 10.0.0.5:3306: connection refused")
}

func TestHouseholds_BadID(t *testing.T) {
	f := newFixture(t)
	f.registered()
	rec := f.do(http.MethodGet, "/api/households/abc/members", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvites(t *testing.T) {
	t.Run("create with default expiry", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.invites.On("Create", mock.Anything, alice, uint64(3), (*int)(nil)).
			Return(&model.Invite{ID: 1, HouseholdID: 3, Code: "ABCD2345", IsActive: true}, nil)

		rec := f.do(http.MethodPost, "/api/households/3/invites", "")
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "ABCD2345", decodeBody(t, rec)["invite_code"])
	})
	t.Run("create with explicit expiry", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.invites.On("Create", mock.Anything, alice, uint64(3), mock.MatchedBy(func(d *int) bool { return d != nil && *d == 30 })).
			Return(&model.Invite{ID: 1, HouseholdID: 3, Code: "ABCD2345", IsActive: true}, nil)

		rec := f.do(http.MethodPost, "/api/households/3/invites", `{"expires_in_days":30}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
	t.Run("expiry out of range", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		rec := f.do(http.MethodPost, "/api/households/3/invites", `{"expires_in_days":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("non-creator", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.invites.On("ListActive", mock.Anything, alice, uint64(3)).Return(nil, service.ErrNotCreator)
		rec := f.do(http.MethodGet, "/api/households/3/invites", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not_creator", decodeBody(t, rec)["code"])
	})
}

func TestJoin(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"joined", nil, http.StatusOK},
		{"unknown code", service.ErrInviteNotFound, http.StatusNotFound},
		{"expired", service.ErrInviteExpired, http.StatusBadRequest},
		{"already member", service.ErrAlreadyMember, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.registered()
			var hh *model.Household
			if tc.err == nil {
				hh = &model.Household{ID: 3, Name: "Flat 4"}
			}
			f.invites.On("Redeem", mock.Anything, alice, "abcd2345").Return(hh, tc.err)

			rec := f.do(http.MethodPost, "/api/households/join/abcd2345", "")
			assert.Equal(t, tc.want, rec.Code)
			if tc.err == nil {
				body := decodeBody(t, rec)
				assert.Equal(t, "Successfully joined household 'Flat 4'", body["message"])
				household, ok := body["household"].(map[string]any)
				require.True(t, ok)
				assert.EqualValues(t, 3, household["id"])
			}
		})
	}
}

func TestTransactions_Create(t *testing.T) {
	f := newFixture(t)
	f.registered()
	cat := "Groceries"
	want := service.TransactionInput{
		Amount:      decimal.RequireFromString("-42.50"),
		Date:        "2024-03-01",
		Description: "weekly shop",
		Category:    &cat,
	}
	f.transactions.On("Create", mock.Anything, alice, mock.MatchedBy(func(in service.TransactionInput) bool {
		return in.Amount.Equal(want.Amount) && in.Date == want.Date &&
			in.Description == want.Description && *in.Category == cat && in.HouseholdID == nil
	})).Return(&model.Transaction{ID: 11, UserID: 7, Amount: want.Amount, Date: want.Date}, nil)

	rec := f.do(http.MethodPost, "/api/transactions",
		`{"amount":"-42.50","date":"2024-03-01","description":"weekly shop","category":"Groceries"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 11, decodeBody(t, rec)["id"])
}

func TestTransactions_CreateHouseholdZero(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.transactions.On("Create", mock.Anything, alice, mock.MatchedBy(func(in service.TransactionInput) bool {
		return in.HouseholdID != nil && *in.HouseholdID == 0
	})).Return(&model.Transaction{ID: 12, UserID: 7}, nil)

	rec := f.do(http.MethodPost, "/api/transactions",
		`{"amount":"4","date":"2024-03-07","description":"Coffee","household_id":0}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTransactions_CreateValidation(t *testing.T) {
	cases := map[string]string{
		"missing amount": `{"date":"2024-03-01","description":"x"}`,
		"bad date":       `{"amount":"1","date":"01/03/2024","description":"x"}`,
		"no description": `{"amount":"1","date":"2024-03-01"}`,
		"not json":       `{"amount":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.registered()
			rec := f.do(http.MethodPost, "/api/transactions", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_input", decodeBody(t, rec)["code"])
		})
	}
}

func TestTransactions_ListPassesFilters(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.transactions.On("List", mock.Anything, alice, mock.MatchedBy(func(q service.Query) bool {
		return q.HouseholdID != nil && *q.HouseholdID == 3 &&
			q.StartDate == "2024-01-01" && q.EndDate == "2024-01-31" && q.Category == "Rent"
	})).Return([]model.Transaction{}, nil)

	rec := f.do(http.MethodGet, "/api/transactions?household_id=3&start_date=2024-01-01&end_date=2024-01-31&category=Rent", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/transactions?household_id=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions_ForeignHouseholdIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.transactions.On("List", mock.Anything, alice, mock.Anything).Return(nil, service.ErrNotMember)

	rec := f.do(http.MethodGet, "/api/transactions?household_id=99", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransactions_Summary(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.transactions.On("Summary", mock.Anything, alice, "weekly", service.Query{}).
		Return(&model.Summary{Period: "weekly", Buckets: []model.SummaryBucket{{Period: "2024-W09", TransactionCount: 2}}}, nil)
	f.transactions.On("Summary", mock.Anything, alice, "hourly", service.Query{}).
		Return(nil, service.ErrInvalidPeriod)

	rec := f.do(http.MethodGet, "/api/transactions/summary?period=weekly", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Period  string           `json:"period"`
		Summary []map[string]any `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "weekly", body.Period)
	require.Len(t, body.Summary, 1)
	assert.Equal(t, "2024-W09", body.Summary[0]["period"])

	rec = f.do(http.MethodGet, "/api/transactions/summary?period=hourly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_period", decodeBody(t, rec)["code"])
}

func TestTransactions_SummaryDefaultPeriod(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.transactions.On("Summary", mock.Anything, alice, "", service.Query{}).
		Return(&model.Summary{Period: "monthly", Buckets: []model.SummaryBucket{}}, nil)

	rec := f.do(http.MethodGet, "/api/transactions/summary", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"period":"monthly","summary":[]}`, rec.Body.String())
}

func TestTransactions_SummaryBlankPeriod(t *testing.T) {
	f := newFixture(t)
	f.registered()

	rec := f.do(http.MethodGet, "/api/transactions/summary?period=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_period", decodeBody(t, rec)["code"])
	f.transactions.AssertNotCalled(t, "Summary", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransactions_Categories(t *testing.T) {
	f := newFixture(t)
	f.registered()
	f.transactions.On("Categories", mock.Anything, alice, (*uint64)(nil)).Return([]string{"Food", "Rent"}, nil)

	rec := f.do(http.MethodGet, "/api/transactions/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Food","Rent"]`, rec.Body.String())
}

func TestTransactions_ItemRoutes(t *testing.T) {
	t.Run("get not visible", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.transactions.On("Get", mock.Anything, alice, uint64(5)).Return(nil, service.ErrNotOwner)
		rec := f.do(http.MethodGet, "/api/transactions/5", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("update", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.transactions.On("Update", mock.Anything, alice, uint64(5), mock.Anything).
			Return(&model.Transaction{ID: 5, UserID: 7}, nil)
		rec := f.do(http.MethodPut, "/api/transactions/5", `{"amount":10,"date":"2024-03-02","description":"refund"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.transactions.On("Delete", mock.Anything, alice, uint64(5)).Return(nil)
		rec := f.do(http.MethodDelete, "/api/transactions/5", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
	t.Run("delete missing", func(t *testing.T) {
		f := newFixture(t)
		f.registered()
		f.transactions.On("Delete", mock.Anything, alice, uint64(6)).Return(service.ErrTransactionNotFound)
		rec := f.do(http.MethodDelete, "/api/transactions/6", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
