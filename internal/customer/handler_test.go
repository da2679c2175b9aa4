package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dilshand3/SubsFlow/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCustomerService struct{ mock.Mock }

func (m *MockCustomerService) Register(ctx context.Context, req RegisterRequest, role string) (*AuthResponse, error) {
	args := m.Called(ctx, req, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AuthResponse), args.Error(1)
}

func (m *MockCustomerService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AuthResponse), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, id string) (*Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockCustomerService)
	h := NewHandler(svc)
	router := gin.New()
	router.POST("/auth/register", h.Register)

	req := RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret-pw"}
	svc.On("Register", mock.Anything, req, auth.RoleCustomer).Return(&AuthResponse{
		Customer:    &Customer{ID: "c-1", Name: "Ada", Email: "ada@example.com", Role: auth.RoleCustomer},
		AccessToken: "token",
	}, nil)

	w := postJSON(t, router, "/auth/register", req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockCustomerService)
	h := NewHandler(svc)
	router := gin.New()
	router.POST("/auth/register", h.Register)

	req := RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret-pw"}
	svc.On("Register", mock.Anything, req, auth.RoleCustomer).Return(nil, ErrEmailExists)

	w := postJSON(t, router, "/auth/register", req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterHandlerShortPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockCustomerService)
	h := NewHandler(svc)
	router := gin.New()
	router.POST("/auth/register", h.Register)

	w := postJSON(t, router, "/auth/register", RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginAdminHandlerRejectsCustomerRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockCustomerService)
	h := NewHandler(svc)
	router := gin.New()
	router.POST("/admin/auth/login", h.LoginAdmin)

	req := LoginRequest{Email: "ada@example.com", Password: "secret-pw"}
	svc.On("Login", mock.Anything, req).Return(&AuthResponse{
		Customer:    &Customer{ID: "c-1", Role: auth.RoleCustomer},
		AccessToken: "token",
	}, nil)

	w := postJSON(t, router, "/admin/auth/login", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAdminHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockCustomerService)
	h := NewHandler(svc)
	router := gin.New()
	router.POST("/admin/auth/login", h.LoginAdmin)

	req := LoginRequest{Email: "root@example.com", Password: "secret-pw"}
	svc.On("Login", mock.Anything, req).Return(&AuthResponse{
		Customer:    &Customer{ID: "a-1", Role: auth.RoleAdmin},
		AccessToken: "token",
	}, nil)

	w := postJSON(t, router, "/admin/auth/login", req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockCustomerService)
	h := NewHandler(svc)
	router := gin.New()
	router.POST("/auth/login", h.Login)

	req := LoginRequest{Email: "ada@example.com", Password: "wrong-pw"}
	svc.On("Login", mock.Anything, req).Return(nil, ErrInvalidCredentials)

	w := postJSON(t, router, "/auth/login", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
