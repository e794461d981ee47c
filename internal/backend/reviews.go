package backend

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/middleware"
	apperrors "github.com/workconnect/session/pkg/errors"
	"github.com/workconnect/session/pkg/response"
)

var errNotParticipant = apperrors.NewAppError(apperrors.CodeBusinessRuleViolation,
	"Only the employer and an applicant of the job can review each other", http.StatusForbidden)

// CreateReview records reviewer's rating of reviewee for a job. Both must have
// taken part in it: one as the employer, the other as an applicant. A
// reviewer rates a reviewee at most once per job.
func (b *Board) CreateReview(reviewer, reviewee *User, in api.NewReview) (*api.Review, error) {
	if reviewer.ID == reviewee.ID {
		return nil, apperrors.NewAppError(apperrors.CodeBusinessRuleViolation, "You cannot review yourself", http.StatusBadRequest)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	j, ok := b.jobs[in.JobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !b.participated(in.JobID, reviewer.ID) || !b.participated(in.JobID, reviewee.ID) {
		return nil, errNotParticipant
	}
	for id, r := range b.reviews {
		if r.Job.ID == in.JobID && b.reviewers[id] == reviewer.ID && r.Reviewee.ID == reviewee.ID {
			return nil, apperrors.NewAppError(apperrors.CodeBusinessRuleViolation,
				"You have already reviewed this user for this job", http.StatusConflict)
		}
	}

	jobCopy := *j
	r := &api.Review{
		ID:        uuid.New().String(),
		Job:       &jobCopy,
		Reviewer:  reviewer.Public(),
		Reviewee:  reviewee.Public(),
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: b.now(),
	}
	b.reviews[r.ID] = r
	b.reviewers[r.ID] = reviewer.ID

	cp := *r
	return &cp, nil
}

// participated reports whether userID owns jobID or applied to it.
func (b *Board) participated(jobID, userID string) bool {
	if b.owners[jobID] == userID {
		return true
	}
	for id, a := range b.applications {
		if a.JobID == jobID && b.applicants[id] == userID {
			return true
		}
	}
	return false
}

// ReviewsFor lists the reviews userID received, newest first.
func (b *Board) ReviewsFor(userID string) []api.Review {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedReviews(func(r *api.Review) bool { return r.Reviewee.ID == userID })
}

// ReviewApplication attaches the worker's review to one of their completed
// applications.
func (b *Board) ReviewApplication(applicationID, workerID string, in api.ReviewSubmission) (*api.ApplicationReview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.applications[applicationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if b.applicants[applicationID] != workerID {
		return nil, apperrors.ErrAccessDenied
	}
	if a.Status != api.StatusCompleted {
		return nil, apperrors.NewAppError(apperrors.CodeIllegalState,
			"Only completed applications can be reviewed", http.StatusConflict)
	}
	if a.Review != nil {
		return nil, apperrors.NewAppError(apperrors.CodeBusinessRuleViolation,
			"This application has already been reviewed", http.StatusConflict)
	}

	a.Review = &api.ApplicationReview{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		Rating:        in.Rating,
		Comment:       in.Comment,
		CreatedAt:     b.now(),
	}
	cp := *a.Review
	return &cp, nil
}

// CheckApplication reports whether workerID applied to jobID.
func (b *Board) CheckApplication(jobID, workerID string) (*api.ApplicationCheck, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.jobs[jobID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	for id, a := range b.applications {
		if a.JobID == jobID && b.applicants[id] == workerID {
			return &api.ApplicationCheck{HasApplied: true, ApplicationID: id, Status: a.Status}, nil
		}
	}
	return &api.ApplicationCheck{}, nil
}

func (b *Board) sortedReviews(keep func(r *api.Review) bool) []api.Review {
	out := make([]api.Review, 0)
	for _, r := range b.reviews {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// CreateReview rates another user
// POST /reviews
func (h *Handler) CreateReview(c *gin.Context) {
	var req api.NewReview
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	if err := validateNewReview(&req); err != nil {
		response.Error(c, err)
		return
	}

	reviewer, err := h.service.CurrentUser(c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	reviewee := h.service.users.FindByID(req.RevieweeID)
	if reviewee == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	review, err := h.board.CreateReview(reviewer, reviewee, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, review)
}

// UserReviews lists the reviews a user received
// GET /reviews/user/:id
func (h *Handler) UserReviews(c *gin.Context) {
	if h.service.users.FindByID(c.Param("id")) == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, h.board.ReviewsFor(c.Param("id")))
}

// ReviewApplication reviews a completed application
// POST /api/applications/:id/review
func (h *Handler) ReviewApplication(c *gin.Context) {
	var req api.ReviewSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}
	if err := validateReviewSubmission(&req); err != nil {
		response.Error(c, err)
		return
	}
	review, err := h.board.ReviewApplication(c.Param("id"), c.GetString(middleware.ContextUserID), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, review)
}

// ApplicationStatus tells a worker whether they applied to a job
// GET /api/jobs/:id/application-status
func (h *Handler) ApplicationStatus(c *gin.Context) {
	check, err := h.board.CheckApplication(c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, check)
}
