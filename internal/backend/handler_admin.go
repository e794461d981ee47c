package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/middleware"
	apperrors "github.com/workconnect/session/pkg/errors"
	"github.com/workconnect/session/pkg/response"
)

var errSelfModeration = apperrors.NewAppError(apperrors.CodeBusinessRuleViolation,
	"Administrators cannot moderate their own account", http.StatusBadRequest)

// AdminUsers lists users
// GET /api/admin/users
func (h *Handler) AdminUsers(c *gin.Context) {
	q := parsePage(c)
	users := h.service.users.List()
	out := make([]api.AdminUser, 0, len(users))
	// List is oldest first; pages are newest first by default.
	for i := len(users) - 1; i >= 0; i-- {
		u := users[i]
		if q.matches(u.Email, u.DisplayName()) {
			out = append(out, h.adminUser(u))
		}
	}
	response.Success(c, http.StatusOK, paginate(out, q))
}

// AdminUser returns one user
// GET /api/admin/users/:id
func (h *Handler) AdminUser(c *gin.Context) {
	u := h.service.users.FindByID(c.Param("id"))
	if u == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, h.adminUser(u))
}

// UpdateUserStatus activates, deactivates or bans a user
// PUT /api/admin/users/:id/status
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	var req struct {
		Status api.UserStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	if c.Param("id") == c.GetString(middleware.ContextUserID) {
		response.Error(c, errSelfModeration)
		return
	}
	if err := h.service.users.SetStatus(c.Param("id"), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteUser removes a user and everything they posted
// DELETE /api/admin/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == c.GetString(middleware.ContextUserID) {
		response.Error(c, errSelfModeration)
		return
	}
	if err := h.service.users.Delete(id); err != nil {
		response.Error(c, err)
		return
	}
	h.board.RemoveUser(id)
	c.Status(http.StatusNoContent)
}

// AdminJobs lists jobs
// GET /api/admin/jobs
func (h *Handler) AdminJobs(c *gin.Context) {
	q := parsePage(c)
	jobs := h.board.List()
	out := make([]api.AdminJob, 0, len(jobs))
	for _, j := range jobs {
		if q.matches(j.Title, j.Description, j.Location) {
			out = append(out, h.adminJob(j))
		}
	}
	response.Success(c, http.StatusOK, paginate(out, q))
}

// AdminJob returns one job
// GET /api/admin/jobs/:id
func (h *Handler) AdminJob(c *gin.Context) {
	j, err := h.board.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.adminJob(*j))
}

// DeleteJob removes a job
// DELETE /api/admin/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.board.DeleteJob(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdminApplications lists every application
// GET /api/admin/applications
func (h *Handler) AdminApplications(c *gin.Context) {
	response.Success(c, http.StatusOK, paginate(h.adminApplications(h.board.AllApplications()), parsePage(c)))
}

// AdminApplicationsByJob lists the applications to one job
// GET /api/admin/applications/job/:id
func (h *Handler) AdminApplicationsByJob(c *gin.Context) {
	apps, err := h.board.ApplicationsByJob(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, paginate(h.adminApplications(apps), parsePage(c)))
}

// AdminApplicationsByWorker lists one worker's applications
// GET /api/admin/applications/worker/:id
func (h *Handler) AdminApplicationsByWorker(c *gin.Context) {
	apps := h.board.ByWorker(c.Param("id"))
	response.Success(c, http.StatusOK, paginate(h.adminApplications(apps), parsePage(c)))
}

// AdminApplication returns one application
// GET /api/admin/applications/:id
func (h *Handler) AdminApplication(c *gin.Context) {
	a, err := h.board.Application(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.adminApplications([]api.Application{*a})[0])
}

// AdminReviews lists reviews
// GET /api/admin/reviews
func (h *Handler) AdminReviews(c *gin.Context) {
	response.Success(c, http.StatusOK, paginate(h.board.AllReviews(), parsePage(c)))
}

// DeleteReview removes a review
// DELETE /api/admin/reviews/:id
func (h *Handler) DeleteReview(c *gin.Context) {
	if err := h.board.DeleteReview(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminUser(u *User) api.AdminUser {
	applications, postings := h.board.Activity(u.ID)
	return api.AdminUser{
		UserID:            u.ID,
		Email:             u.Email,
		Role:              u.Role,
		Status:            u.Status,
		DisplayName:       u.DisplayName(),
		CreatedAt:         u.CreatedAt,
		TotalApplications: applications,
		TotalJobPostings:  postings,
	}
}

func (h *Handler) adminJob(j api.Job) api.AdminJob {
	out := api.AdminJob{
		ID:             j.ID,
		JobTitle:       j.Title,
		Description:    j.Description,
		RequiredSkills: j.RequiredSkills,
		Location:       j.Location,
		Salary:         j.Salary,
		CreatedAt:      j.CreatedAt,
	}
	if j.PostedBy != nil {
		out.EmployerEmail = j.PostedBy.Email
	}
	if apps, err := h.board.ApplicationsByJob(j.ID); err == nil {
		out.TotalApplications = len(apps)
	}
	return out
}

func (h *Handler) adminApplications(apps []api.Application) []api.AdminApplication {
	out := make([]api.AdminApplication, 0, len(apps))
	for _, a := range apps {
		item := api.AdminApplication{
			ID:          a.ID,
			JobID:       a.JobID,
			WorkerID:    h.board.Applicant(a.ID),
			Status:      a.Status,
			AppliedAt:   a.AppliedAt,
			CoverLetter: a.CoverLetter,
		}
		if a.Job != nil {
			item.JobTitle = a.Job.Title
			if a.Job.PostedBy != nil {
				item.EmployerEmail = a.Job.PostedBy.Email
			}
		}
		if a.Applicant != nil {
			item.WorkerEmail = a.Applicant.Email
		}
		if w := h.service.users.FindByID(item.WorkerID); w != nil {
			item.WorkerName = w.DisplayName()
		}
		out = append(out, item)
	}
	return out
}
