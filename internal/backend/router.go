package backend

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/workconnect/session/internal/middleware"
	"github.com/workconnect/session/internal/token"
	"go.uber.org/zap"
)

// RouterConfig holds what NewRouter needs besides the handler.
type RouterConfig struct {
	Issuer         *token.Issuer
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Trace())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.GET("/me", middleware.Auth(cfg.Issuer), h.Me)
	}

	protected := r.Group("/api", middleware.Auth(cfg.Issuer))
	{
		protected.GET("/jobs", h.ListJobs)
		protected.GET("/jobs/:id", h.GetJob)
		protected.POST("/jobs", middleware.RequireRole(token.RoleEmployer, token.RoleAdmin), h.CreateJob)
		protected.POST("/jobs/:id/apply", middleware.RequireRole(token.RoleWorker), h.Apply)

		protected.GET("/jobs/:id/application-status", middleware.RequireRole(token.RoleWorker), h.ApplicationStatus)

		protected.GET("/worker/applications", middleware.RequireRole(token.RoleWorker), h.MyApplications)
		protected.POST("/applications/:id/review", middleware.RequireRole(token.RoleWorker), h.ReviewApplication)

		employer := protected.Group("/employer", middleware.RequireRole(token.RoleEmployer, token.RoleAdmin))
		employer.GET("/jobs", h.EmployerJobs)
		employer.GET("/jobs/:id/applications", h.JobApplications)
		employer.PUT("/applications/:id/status", h.UpdateApplicationStatus)
	}

	admin := r.Group("/api/admin", middleware.Auth(cfg.Issuer), middleware.RequireRole(token.RoleAdmin))
	{
		admin.GET("/users", h.AdminUsers)
		admin.GET("/users/:id", h.AdminUser)
		admin.PUT("/users/:id/status", h.UpdateUserStatus)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.GET("/jobs", h.AdminJobs)
		admin.GET("/jobs/:id", h.AdminJob)
		admin.DELETE("/jobs/:id", h.DeleteJob)

		admin.GET("/applications", h.AdminApplications)
		admin.GET("/applications/job/:id", h.AdminApplicationsByJob)
		admin.GET("/applications/worker/:id", h.AdminApplicationsByWorker)
		admin.GET("/applications/:id", h.AdminApplication)

		admin.GET("/reviews", h.AdminReviews)
		admin.DELETE("/reviews/:id", h.DeleteReview)
	}

	reviews := r.Group("/reviews", middleware.Auth(cfg.Issuer))
	{
		reviews.POST("", h.CreateReview)
		reviews.GET("/user/:id", h.UserReviews)
	}

	return r
}
