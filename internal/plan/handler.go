package plan

import (
	"errors"
	"net/http"

	"github.com/dilshand3/SubsFlow/internal/api"
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

// @Summary      Create a plan
// @Description  Admin-only: create a subscription plan with a bounded seat count
// @Tags         admin,plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body plan.CreatePlanRequest true "Plan payload"
// @Success      201 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Failure      403 {object} api.Response
// @Router       /admin/plans [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	plan, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			api.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Errorf("Failed to create plan: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusCreated, "Plan created successfully", plan)
}

// @Summary      Edit a plan
// @Description  Admin-only: partial update of plan fields
// @Tags         admin,plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planID path string true "Plan ID"
// @Param        request body plan.EditPlanRequest true "Fields to update"
// @Success      200 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Router       /admin/plans/{planID} [patch]
func (h *Handler) Edit(c *gin.Context) {
	id := c.Param("planID")
	if _, err := uuid.Parse(id); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	var req EditPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.Edit(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			api.Fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPlanNotFound):
			api.Fail(c, http.StatusNotFound, "Plan not found")
		default:
			logger.Errorf("Failed to edit plan %s: %v", id, err)
			api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	api.OK(c, http.StatusOK, "Plan updated successfully", plan)
}

// @Summary      Retire a plan
// @Description  Admin-only: hard-delete an unreferenced plan, otherwise mark it inactive
// @Tags         admin,plans
// @Produce      json
// @Security     BearerAuth
// @Param        planID path string true "Plan ID"
// @Success      200 {object} api.Response
// @Failure      404 {object} api.Response
// @Router       /admin/plans/{planID} [delete]
func (h *Handler) Retire(c *gin.Context) {
	id := c.Param("planID")
	if _, err := uuid.Parse(id); err != nil {
		api.Fail(c, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	deleted, err := h.service.Retire(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			api.Fail(c, http.StatusNotFound, "Plan not found")
			return
		}
		logger.Errorf("Failed to retire plan %s: %v", id, err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if deleted {
		api.OK(c, http.StatusOK, "Plan deleted successfully", nil)
		return
	}
	api.OK(c, http.StatusOK, "Plan marked inactive", nil)
}

// @Summary      List purchasable plans
// @Description  Active plans with at least one seat left, newest first
// @Tags         plans
// @Produce      json
// @Success      200 {object} api.Response
// @Router       /plans [get]
func (h *Handler) ListActive(c *gin.Context) {
	plans, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to list active plans: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusOK, "Plans fetched successfully", plans)
}

// @Summary      List all plans
// @Description  Admin-only: every plan including inactive and sold out
// @Tags         admin,plans
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response
// @Router       /admin/plans [get]
func (h *Handler) ListAll(c *gin.Context) {
	plans, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to list plans: %v", err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusOK, "Plans fetched successfully", plans)
}
