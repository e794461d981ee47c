package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
)

// UserStatus is an account's moderation state
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
	UserBanned   UserStatus = "BANNED"
)

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserInactive, UserBanned:
		return true
	}
	return false
}

// AdminUser is a user as seen by moderators
type AdminUser struct {
	UserID            string     `json:"userId"`
	Email             string     `json:"email"`
	Role              token.Role `json:"role"`
	Status            UserStatus `json:"status"`
	DisplayName       string     `json:"displayName"`
	CreatedAt         time.Time  `json:"createdAt"`
	TotalApplications int        `json:"totalApplications"`
	TotalJobPostings  int        `json:"totalJobPostings"`
}

// AdminJob is a job as seen by moderators
type AdminJob struct {
	ID                string    `json:"id"`
	JobTitle          string    `json:"jobTitle"`
	Description       string    `json:"description"`
	RequiredSkills    string    `json:"requiredSkills"`
	Location          string    `json:"location"`
	Salary            string    `json:"salary,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	EmployerEmail     string    `json:"employerEmail"`
	TotalApplications int       `json:"totalApplications"`
}

// AdminApplication is an application as seen by moderators
type AdminApplication struct {
	ID            string            `json:"id"`
	JobID         string            `json:"jobId"`
	JobTitle      string            `json:"jobTitle"`
	EmployerEmail string            `json:"employerEmail"`
	WorkerID      string            `json:"workerId"`
	WorkerEmail   string            `json:"workerEmail"`
	WorkerName    string            `json:"workerName"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
	CoverLetter   string            `json:"coverLetter,omitempty"`
}

// Page is one page of a listing
type Page[T any] struct {
	Content          []T  `json:"content"`
	TotalElements    int  `json:"totalElements"`
	TotalPages       int  `json:"totalPages"`
	Size             int  `json:"size"`
	Number           int  `json:"number"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
	NumberOfElements int  `json:"numberOfElements"`
}

// DefaultPageSize applies when PageQuery.Size is zero.
const DefaultPageSize = 20

// PageQuery selects a page of a listing. Page is zero-based.
type PageQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string // asc or desc
	Search  string
}

// Params renders q as query parameters.
func (q PageQuery) Params() map[string]string {
	size := q.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	p := map[string]string{
		"page": strconv.Itoa(max(q.Page, 0)),
		"size": strconv.Itoa(size),
	}
	if q.SortBy != "" {
		p["sortBy"] = q.SortBy
	}
	if q.SortDir != "" {
		p["sortDir"] = q.SortDir
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		p["search"] = s
	}
	return p
}

// AdminUsers lists users
func (c *Client) AdminUsers(ctx context.Context, q PageQuery) (*Page[AdminUser], error) {
	var page Page[AdminUser]
	if err := c.do(c.page(ctx, q, &page), http.MethodGet, "/api/admin/users"); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminUser returns one user
func (c *Client) AdminUser(ctx context.Context, userID string) (*AdminUser, error) {
	var u AdminUser
	req := c.http.R().SetContext(ctx).SetPathParam("id", userID).SetResult(&u)
	if err := c.do(req, http.MethodGet, "/api/admin/users/{id}"); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserStatus activates, deactivates or bans a user.
func (c *Client) UpdateUserStatus(ctx context.Context, userID string, status UserStatus) error {
	if !status.Valid() {
		return apperrors.NewAppError(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unknown user status %q", status), http.StatusBadRequest)
	}
	req := c.http.R().SetContext(ctx).SetPathParam("id", userID).SetBody(map[string]UserStatus{"status": status})
	return c.do(req, http.MethodPut, "/api/admin/users/{id}/status")
}

// DeleteUser removes a user
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(c.http.R().SetContext(ctx).SetPathParam("id", userID), http.MethodDelete, "/api/admin/users/{id}")
}

// AdminJobs lists jobs
func (c *Client) AdminJobs(ctx context.Context, q PageQuery) (*Page[AdminJob], error) {
	var page Page[AdminJob]
	if err := c.do(c.page(ctx, q, &page), http.MethodGet, "/api/admin/jobs"); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminJob returns one job
func (c *Client) AdminJob(ctx context.Context, jobID string) (*AdminJob, error) {
	var j AdminJob
	req := c.http.R().SetContext(ctx).SetPathParam("id", jobID).SetResult(&j)
	if err := c.do(req, http.MethodGet, "/api/admin/jobs/{id}"); err != nil {
		return nil, err
	}
	return &j, nil
}

// DeleteJob removes a job and its applications
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	return c.do(c.http.R().SetContext(ctx).SetPathParam("id", jobID), http.MethodDelete, "/api/admin/jobs/{id}")
}

// AdminApplications lists every application
func (c *Client) AdminApplications(ctx context.Context, q PageQuery) (*Page[AdminApplication], error) {
	var page Page[AdminApplication]
	if err := c.do(c.page(ctx, q, &page), http.MethodGet, "/api/admin/applications"); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminApplicationsByJob lists the applications to one job
func (c *Client) AdminApplicationsByJob(ctx context.Context, jobID string, q PageQuery) (*Page[AdminApplication], error) {
	var page Page[AdminApplication]
	req := c.page(ctx, q, &page).SetPathParam("id", jobID)
	if err := c.do(req, http.MethodGet, "/api/admin/applications/job/{id}"); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminApplicationsByWorker lists one worker's applications
func (c *Client) AdminApplicationsByWorker(ctx context.Context, workerID string, q PageQuery) (*Page[AdminApplication], error) {
	var page Page[AdminApplication]
	req := c.page(ctx, q, &page).SetPathParam("id", workerID)
	if err := c.do(req, http.MethodGet, "/api/admin/applications/worker/{id}"); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminApplication returns one application
func (c *Client) AdminApplication(ctx context.Context, applicationID string) (*AdminApplication, error) {
	var a AdminApplication
	req := c.http.R().SetContext(ctx).SetPathParam("id", applicationID).SetResult(&a)
	if err := c.do(req, http.MethodGet, "/api/admin/applications/{id}"); err != nil {
		return nil, err
	}
	return &a, nil
}

// AdminReviews lists reviews
func (c *Client) AdminReviews(ctx context.Context, q PageQuery) (*Page[Review], error) {
	var page Page[Review]
	if err := c.do(c.page(ctx, q, &page), http.MethodGet, "/api/admin/reviews"); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteReview removes a review
func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	return c.do(c.http.R().SetContext(ctx).SetPathParam("id", reviewID), http.MethodDelete, "/api/admin/reviews/{id}")
}

func (c *Client) page(ctx context.Context, q PageQuery, result interface{}) *resty.Request {
	return c.http.R().SetContext(ctx).SetQueryParams(q.Params()).SetResult(result)
}
