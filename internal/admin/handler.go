package admin

import (
	"errors"
	"net/http"

	"github.com/dilshand3/SubsFlow/internal/api"
	"github.com/dilshand3/SubsFlow/internal/audit"
	"github.com/dilshand3/SubsFlow/internal/auth"
	"github.com/dilshand3/SubsFlow/internal/logger"
	"github.com/dilshand3/SubsFlow/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service       Service
	subscriptions subscription.Service
}

func NewHandler(service Service, subscriptions subscription.Service) *Handler {
	return &Handler{service: service, subscriptions: subscriptions}
}

// @Summary      Dashboard stats
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response
// @Router       /admin/stats [get]
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to load dashboard stats: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusOK, "Dashboard stats fetched successfully", stats)
}

// @Summary      Audit log history
// @Description  Attempt trail joined against customers and plans, optionally for one customer
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        customer_id query string false "Filter by customer"
// @Success      200 {object} api.Response
// @Router       /admin/audit-logs [get]
func (h *Handler) AuditHistory(c *gin.Context) {
	customerID := c.Query("customer_id")
	if customerID != "" {
		if _, err := uuid.Parse(customerID); err != nil {
			api.Fail(c, http.StatusBadRequest, "Invalid customer ID format")
			return
		}
	}

	entries, err := h.service.AuditHistory(c.Request.Context(), customerID)
	if err != nil {
		logger.Errorf("Failed to load audit history: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusOK, "Audit logs fetched successfully", entries)
}

// @Summary      Reconcile a failed purchase
// @Description  Replays a failed attempt from its audit entry; never double-grants a seat
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body admin.ReconcileRequest true "Audit log reference"
// @Success      200 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /admin/reconcile [post]
func (h *Handler) Reconcile(c *gin.Context) {
	adminID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Audit Log ID is required")
		return
	}
	if _, err := uuid.Parse(req.LogID); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid audit log ID format")
		return
	}

	sub, alreadyExisted, err := h.subscriptions.Reconcile(c.Request.Context(), adminID, req.LogID)
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrEntryNotFound):
			api.Fail(c, http.StatusNotFound, "Log record not found")
		case errors.Is(err, audit.ErrNoPlanInMetadata):
			api.Fail(c, http.StatusBadRequest, "Invalid Metadata: No Plan ID found")
		case errors.Is(err, subscription.ErrPlanNotFound):
			api.Fail(c, http.StatusNotFound, "Target plan not found")
		case errors.Is(err, subscription.ErrPlanSoldOut):
			api.Fail(c, http.StatusConflict, "Target plan is fully booked; entry left for retry")
		case errors.Is(err, subscription.ErrAlreadySubscribed):
			api.Fail(c, http.StatusConflict, "Customer already holds an active subscription")
		default:
			logger.Errorf("Reconciliation of %s failed: %v", req.LogID, err)
			api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	if alreadyExisted {
		api.OK(c, http.StatusOK, "Subscription already exists.", sub)
		return
	}
	api.OK(c, http.StatusOK, "Subscription Fixed!", sub)
}
