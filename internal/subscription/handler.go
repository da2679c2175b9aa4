package subscription

import (
	"errors"
	"net/http"

	"github.com/dilshand3/SubsFlow/internal/api"
	"github.com/dilshand3/SubsFlow/internal/auth"
	"github.com/dilshand3/SubsFlow/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type PurchaseRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type SwitchRequest struct {
	CurrentSubscriptionID string `json:"current_subscription_id" binding:"required"`
	NewPlanID             string `json:"new_plan_id" binding:"required"`
}

// @Summary      Purchase a subscription
// @Description  Consumes one seat of the plan; at most one active subscription per customer
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body subscription.PurchaseRequest true "Purchase payload"
// @Success      201 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /subscriptions [post]
func (h *Handler) Purchase(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Plan ID is required")
		return
	}
	if _, err := uuid.Parse(req.PlanID); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	sub, err := h.service.Purchase(c.Request.Context(), customerID, req.PlanID)
	if err != nil {
		var dup *DuplicatePurchaseError
		switch {
		case errors.As(err, &dup):
			api.FailWith(c, http.StatusConflict, "You already have a subscription for this plan", dup.Existing)
		case errors.Is(err, ErrAlreadySubscribed):
			api.Fail(c, http.StatusConflict, "You already have an active subscription; switch plans instead")
		case errors.Is(err, ErrPlanNotFound):
			api.Fail(c, http.StatusNotFound, "Plan not found")
		case errors.Is(err, ErrPlanSoldOut):
			api.Fail(c, http.StatusConflict, "Plan is fully booked!")
		default:
			logger.Errorf("Purchase failed: customer=%s plan=%s: %v", customerID, req.PlanID, err)
			api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	api.OK(c, http.StatusCreated, "Subscription activated successfully!", sub)
}

// @Summary      List my subscriptions
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response
// @Router       /subscriptions [get]
func (h *Handler) ListMy(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	subs, err := h.service.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		logger.Errorf("Failed to list subscriptions for %s: %v", customerID, err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusOK, "Subscriptions fetched successfully", subs)
}

// @Summary      Cancel a subscription
// @Description  Marks the subscription cancelled and returns its seat to the plan
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        subID path string true "Subscription ID"
// @Success      200 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Router       /subscriptions/{subID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	subID := c.Param("subID")
	if _, err := uuid.Parse(subID); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid subscription ID format")
		return
	}

	sub, err := h.service.Cancel(c.Request.Context(), customerID, subID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSubscriptionNotFound):
			api.Fail(c, http.StatusNotFound, "Subscription not found")
		case errors.Is(err, ErrAlreadyCancelled):
			api.Fail(c, http.StatusBadRequest, "Subscription is already cancelled")
		default:
			logger.Errorf("Cancel failed: customer=%s sub=%s: %v", customerID, subID, err)
			api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	api.OK(c, http.StatusOK, "Subscription cancelled successfully", sub)
}

// @Summary      Switch plans
// @Description  Atomically replaces the active subscription with one on a different plan
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body subscription.SwitchRequest true "Switch payload"
// @Success      200 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /subscriptions/switch [post]
func (h *Handler) Switch(c *gin.Context) {
	customerID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Current subscription ID and new plan ID are required")
		return
	}
	if _, err := uuid.Parse(req.CurrentSubscriptionID); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid subscription ID format")
		return
	}
	if _, err := uuid.Parse(req.NewPlanID); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	sub, err := h.service.Switch(c.Request.Context(), customerID, req.CurrentSubscriptionID, req.NewPlanID)
	if err != nil {
		var dup *DuplicatePurchaseError
		switch {
		case errors.As(err, &dup):
			api.FailWith(c, http.StatusConflict, "You already have a subscription for this plan", dup.Existing)
		case errors.Is(err, ErrSamePlan):
			api.Fail(c, http.StatusConflict, "New plan is the same as the current plan")
		case errors.Is(err, ErrSubscriptionNotFound):
			api.Fail(c, http.StatusNotFound, "Subscription not found")
		case errors.Is(err, ErrAlreadyCancelled):
			api.Fail(c, http.StatusBadRequest, "Current subscription is not active")
		case errors.Is(err, ErrPlanNotFound):
			api.Fail(c, http.StatusNotFound, "New plan not found")
		case errors.Is(err, ErrPlanSoldOut):
			api.Fail(c, http.StatusConflict, "New plan is fully booked!")
		default:
			logger.Errorf("Switch failed: customer=%s sub=%s plan=%s: %v", customerID, req.CurrentSubscriptionID, req.NewPlanID, err)
			api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	api.OK(c, http.StatusOK, "Plan switched successfully!", sub)
}
