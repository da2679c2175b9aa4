package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dilshand3/SubsFlow/internal/api"
	"github.com/dilshand3/SubsFlow/internal/audit"
	"github.com/dilshand3/SubsFlow/internal/subscription"
)

const (
	testAdminID = "a1b2c3d4-0000-0000-0000-000000000001"
	testLogID   = "a1b2c3d4-0000-0000-0000-000000000002"
)

type MockAdminService struct{ mock.Mock }

func (m *MockAdminService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DashboardStats), args.Error(1)
}

func (m *MockAdminService) AuditHistory(ctx context.Context, customerID string) ([]audit.HistoryEntry, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.HistoryEntry), args.Error(1)
}

type MockSubService struct{ mock.Mock }

func (m *MockSubService) Purchase(ctx context.Context, customerID, planID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, customerID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubService) Cancel(ctx context.Context, customerID, subscriptionID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, customerID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubService) Switch(ctx context.Context, customerID, currentSubID, newPlanID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, customerID, currentSubID, newPlanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubService) Reconcile(ctx context.Context, adminID, auditLogID string) (*subscription.Subscription, bool, error) {
	args := m.Called(ctx, adminID, auditLogID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*subscription.Subscription), args.Bool(1), args.Error(2)
}

func (m *MockSubService) ListByCustomer(ctx context.Context, customerID string) ([]subscription.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscription.Subscription), args.Error(1)
}

func setupRouter(adminSvc *MockAdminService, subSvc *MockSubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", testAdminID)
		c.Next()
	})

	h := NewHandler(adminSvc, subSvc)
	router.GET("/admin/stats", h.DashboardStats)
	router.GET("/admin/audit-logs", h.AuditHistory)
	router.POST("/admin/reconcile", h.Reconcile)
	return router
}

func doReconcile(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/admin/reconcile", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) api.Response {
	t.Helper()
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReconcileHandlerFixed(t *testing.T) {
	adminSvc := new(MockAdminService)
	subSvc := new(MockSubService)
	sub := &subscription.Subscription{ID: "s-1", Status: subscription.StatusActive}
	subSvc.On("Reconcile", mock.Anything, testAdminID, testLogID).Return(sub, false, nil)

	router := setupRouter(adminSvc, subSvc)
	w := doReconcile(t, router, ReconcileRequest{LogID: testLogID})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Subscription Fixed!", resp.Message)
	subSvc.AssertExpectations(t)
}

func TestReconcileHandlerAlreadyExists(t *testing.T) {
	adminSvc := new(MockAdminService)
	subSvc := new(MockSubService)
	sub := &subscription.Subscription{ID: "s-1", Status: subscription.StatusActive}
	subSvc.On("Reconcile", mock.Anything, testAdminID, testLogID).Return(sub, true, nil)

	router := setupRouter(adminSvc, subSvc)
	w := doReconcile(t, router, ReconcileRequest{LogID: testLogID})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Subscription already exists.", resp.Message)
}

func TestReconcileHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"entry not found", audit.ErrEntryNotFound, http.StatusNotFound, "Log record not found"},
		{"no plan in metadata", audit.ErrNoPlanInMetadata, http.StatusBadRequest, "Invalid Metadata: No Plan ID found"},
		{"plan missing", subscription.ErrPlanNotFound, http.StatusNotFound, "Target plan not found"},
		{"plan sold out", subscription.ErrPlanSoldOut, http.StatusConflict, "Target plan is fully booked; entry left for retry"},
		{"customer already active", subscription.ErrAlreadySubscribed, http.StatusConflict, "Customer already holds an active subscription"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adminSvc := new(MockAdminService)
			subSvc := new(MockSubService)
			subSvc.On("Reconcile", mock.Anything, testAdminID, testLogID).Return(nil, false, tt.err)

			router := setupRouter(adminSvc, subSvc)
			w := doReconcile(t, router, ReconcileRequest{LogID: testLogID})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestReconcileHandlerInvalidLogID(t *testing.T) {
	adminSvc := new(MockAdminService)
	subSvc := new(MockSubService)

	router := setupRouter(adminSvc, subSvc)
	w := doReconcile(t, router, ReconcileRequest{LogID: "not-a-uuid"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	subSvc.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileHandlerMissingLogID(t *testing.T) {
	adminSvc := new(MockAdminService)
	subSvc := new(MockSubService)

	router := setupRouter(adminSvc, subSvc)
	w := doReconcile(t, router, map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Audit Log ID is required", resp.Message)
}

func TestAuditHistoryHandlerInvalidCustomerID(t *testing.T) {
	adminSvc := new(MockAdminService)
	subSvc := new(MockSubService)

	router := setupRouter(adminSvc, subSvc)
	req := httptest.NewRequest("GET", "/admin/audit-logs?customer_id=garbage", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	adminSvc.AssertNotCalled(t, "AuditHistory", mock.Anything, mock.Anything)
}

func TestDashboardStatsHandler(t *testing.T) {
	adminSvc := new(MockAdminService)
	subSvc := new(MockSubService)
	adminSvc.On("DashboardStats", mock.Anything).Return(&DashboardStats{TotalUsers: 3, ActiveSubs: 2}, nil)

	router := setupRouter(adminSvc, subSvc)
	req := httptest.NewRequest("GET", "/admin/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	adminSvc.AssertExpectations(t)
}
