package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/middleware"
	"github.com/workconnect/session/pkg/response"
)

// Handler handles the dev backend HTTP requests
type Handler struct {
	service *Service
	board   *Board
}

// NewHandler creates a new handler
func NewHandler(service *Service, board *Board) *Handler {
	return &Handler{service: service, board: board}
}

// Login handles email/password login
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, pair)
}

// Register handles account creation
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	usr, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, usr.Public())
}

// Refresh exchanges a refresh token
// POST /api/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, pair)
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	usr, err := h.service.CurrentUser(c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, usr.Public())
}

// ListJobs returns every job
// GET /api/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	response.Success(c, http.StatusOK, h.board.List())
}

// GetJob returns one job
// GET /api/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.board.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, job)
}

// CreateJob posts a job
// POST /api/jobs
func (h *Handler) CreateJob(c *gin.Context) {
	var req api.NewJob
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	if err := validateNewJob(&req); err != nil {
		response.Error(c, err)
		return
	}

	usr, err := h.service.CurrentUser(c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, h.board.Create(usr, req))
}

// Apply submits an application
// POST /api/jobs/:id/apply
func (h *Handler) Apply(c *gin.Context) {
	var req struct {
		CoverLetter string `json:"coverLetter"`
	}
	// An empty body is a valid application.
	_ = c.ShouldBindJSON(&req)

	usr, err := h.service.CurrentUser(c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	app, err := h.board.Apply(c.Param("id"), usr, req.CoverLetter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, app)
}

// MyApplications lists the worker's applications
// GET /api/worker/applications
func (h *Handler) MyApplications(c *gin.Context) {
	response.Success(c, http.StatusOK, h.board.ByWorker(c.GetString(middleware.ContextUserID)))
}

// EmployerJobs lists the employer's jobs
// GET /api/employer/jobs
func (h *Handler) EmployerJobs(c *gin.Context) {
	response.Success(c, http.StatusOK, h.board.ByEmployer(c.GetString(middleware.ContextUserID)))
}

// JobApplications lists applications to one of the employer's jobs
// GET /api/employer/jobs/:id/applications
func (h *Handler) JobApplications(c *gin.Context) {
	apps, err := h.board.ApplicationsFor(c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, apps)
}

// UpdateApplicationStatus changes an application's status
// PUT /api/employer/applications/:id/status
func (h *Handler) UpdateApplicationStatus(c *gin.Context) {
	var req api.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	if err := h.board.UpdateStatus(c.Param("id"), c.GetString(middleware.ContextUserID), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Health returns health status
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
