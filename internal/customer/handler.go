package customer

import (
	"errors"
	"net/http"

	"github.com/dilshand3/SubsFlow/internal/api"
	"github.com/dilshand3/SubsFlow/internal/auth"
	"github.com/dilshand3/SubsFlow/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Register a customer account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body customer.RegisterRequest true "Registration payload"
// @Success      201 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	h.register(c, auth.RoleCustomer)
}

// @Summary      Register an admin account
// @Tags         admin,auth
// @Accept       json
// @Produce      json
// @Param        request body customer.RegisterRequest true "Registration payload"
// @Success      201 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /admin/auth/register [post]
func (h *Handler) RegisterAdmin(c *gin.Context) {
	h.register(c, auth.RoleAdmin)
}

func (h *Handler) register(c *gin.Context, role string) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "All fields are required")
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req, role)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			api.Fail(c, http.StatusConflict, "Email already registered")
			return
		}
		logger.Errorf("Failed to register %s account: %v", role, err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusCreated, "Account created successfully", resp)
}

// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body customer.LoginRequest true "Login payload"
// @Success      200 {object} api.Response
// @Failure      401 {object} api.Response
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	h.login(c, "")
}

// @Summary      Admin log in
// @Tags         admin,auth
// @Accept       json
// @Produce      json
// @Param        request body customer.LoginRequest true "Login payload"
// @Success      200 {object} api.Response
// @Failure      401 {object} api.Response
// @Router       /admin/auth/login [post]
func (h *Handler) LoginAdmin(c *gin.Context) {
	h.login(c, auth.RoleAdmin)
}

func (h *Handler) login(c *gin.Context, requireRole string) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.Fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		logger.Errorf("Login failed for %s: %v", req.Email, err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// A customer token must never open the admin surface, and the
	// response must not reveal that the account exists.
	if requireRole != "" && resp.Customer.Role != requireRole {
		api.Fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	api.OK(c, http.StatusOK, "Login successful", resp)
}

// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response
// @Failure      401 {object} api.Response
// @Failure      404 {object} api.Response
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	id, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	customer, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			api.Fail(c, http.StatusNotFound, "Account not found")
			return
		}
		logger.Errorf("Failed to load customer %s: %v", id, err)
		api.Fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	api.OK(c, http.StatusOK, "Account data fetched", customer)
}
