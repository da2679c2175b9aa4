package server

import (
	"context"
	"net/http"
	"time"

	"github.com/dilshand3/SubsFlow/internal/admin"
	"github.com/dilshand3/SubsFlow/internal/audit"
	"github.com/dilshand3/SubsFlow/internal/auth"
	"github.com/dilshand3/SubsFlow/internal/cache"
	"github.com/dilshand3/SubsFlow/internal/config"
	"github.com/dilshand3/SubsFlow/internal/customer"
	"github.com/dilshand3/SubsFlow/internal/email"
	"github.com/dilshand3/SubsFlow/internal/plan"
	"github.com/dilshand3/SubsFlow/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, store *cache.Cache, emailService *email.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	auditRepo := audit.NewRepository(db)
	customerRepo := customer.NewRepository(db)
	planRepo := plan.NewRepository(db)
	subRepo := subscription.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	customerService := customer.NewService(customerRepo, store, cfg.JWTSecret)
	planService := plan.NewService(planRepo, store)
	subService := subscription.NewService(subRepo, auditRepo, customerRepo, planRepo, store, emailService)
	adminService := admin.NewService(adminRepo, auditRepo, store)

	customerHandler := customer.NewHandler(customerService)
	planHandler := plan.NewHandler(planService)
	subHandler := subscription.NewHandler(subService)
	adminHandler := admin.NewHandler(adminService, subService)

	public := router.Group("/auth")
	{
		public.POST("/register", customerHandler.Register)
		public.POST("/login", customerHandler.Login)
	}
	router.POST("/admin/auth/login", customerHandler.LoginAdmin)

	// Browsable without an account, same as the storefront.
	router.GET("/plans", planHandler.ListActive)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", customerHandler.GetMe)
		protected.POST("/subscriptions", subHandler.Purchase)
		protected.GET("/subscriptions", subHandler.ListMy)
		protected.POST("/subscriptions/:subID/cancel", subHandler.Cancel)
		protected.POST("/subscriptions/switch", subHandler.Switch)
	}

	adminMiddleware := auth.RequireRole(auth.RoleAdmin)
	adminGroup := router.Group("/admin")
	adminGroup.Use(authMiddleware, adminMiddleware)
	{
		adminGroup.POST("/auth/register", customerHandler.RegisterAdmin)
		adminGroup.POST("/plans", planHandler.Create)
		adminGroup.GET("/plans", planHandler.ListAll)
		adminGroup.PATCH("/plans/:planID", planHandler.Edit)
		adminGroup.DELETE("/plans/:planID", planHandler.Retire)
		adminGroup.GET("/stats", adminHandler.DashboardStats)
		adminGroup.GET("/audit-logs", adminHandler.AuditHistory)
		adminGroup.POST("/reconcile", adminHandler.Reconcile)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
