package customer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dilshand3/SubsFlow/internal/auth"
	"github.com/dilshand3/SubsFlow/internal/cache"
	"github.com/dilshand3/SubsFlow/internal/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

const testSecret = "test-secret"

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*Customer, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *MockRepo) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *MockRepo) FindByID(ctx context.Context, id string) (*Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *MockRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func newService(repo Repository) Service {
	rdb, _ := redismock.NewClientMock()
	return NewService(repo, cache.NewFromClient(rdb), testSecret)
}

func TestRegisterHashesPasswordAndIssuesTokens(t *testing.T) {
	repo := new(MockRepo)
	svc := newService(repo)

	created := &Customer{
		ID: "c-1", Name: "Ada", Email: "ada@example.com",
		Role: auth.RoleCustomer, CreatedAt: time.Now(),
	}

	repo.On("EmailExists", mock.Anything, "ada@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "Ada", "ada@example.com", mock.MatchedBy(func(hash string) bool {
		return hash != "secret-pw" && auth.CheckPassword(hash, "secret-pw")
	}), auth.RoleCustomer).Return(created, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret-pw",
	}, auth.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.Customer.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := auth.ValidateToken(resp.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "c-1", claims.UserID)
	assert.Equal(t, auth.RoleCustomer, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(MockRepo)
	svc := newService(repo)

	repo.On("EmailExists", mock.Anything, "ada@example.com").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret-pw",
	}, auth.RoleCustomer)
	assert.ErrorIs(t, err, ErrEmailExists)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := new(MockRepo)
	svc := newService(repo)

	hash, err := auth.HashPassword("right-pw")
	require.NoError(t, err)
	repo.On("FindByEmail", mock.Anything, "ada@example.com").Return(&Customer{
		ID: "c-1", Email: "ada@example.com", PasswordHash: hash, Role: auth.RoleCustomer,
	}, nil)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ada@example.com", Password: "wrong-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	repo := new(MockRepo)
	svc := newService(repo)

	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, ErrCustomerNotFound)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByIDCacheHit(t *testing.T) {
	repo := new(MockRepo)
	rdb, redisMock := redismock.NewClientMock()
	svc := NewService(repo, cache.NewFromClient(rdb), testSecret)

	redisMock.ExpectGet(cache.UserKey("c-1")).SetVal(`{"id":"c-1","name":"Ada","email":"ada@example.com","role":"customer"}`)

	cust, err := svc.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", cust.Name)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
