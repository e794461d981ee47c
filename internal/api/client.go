package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	apperrors "github.com/workconnect/session/pkg/errors"
)

// Client calls the job and application endpoints
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the backend at baseURL. transport should be
// the session transport; nil means http.DefaultTransport.
func NewClient(baseURL string, transport http.RoundTripper, timeout time.Duration) *Client {
	hc := &http.Client{Transport: transport, Timeout: timeout}
	return &Client{
		http: resty.NewWithClient(hc).
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
	}
}

// ListJobs returns every open job
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&jobs), http.MethodGet, "/api/jobs"); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one job
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	req := c.http.R().SetContext(ctx).SetPathParam("id", id).SetResult(&job)
	if err := c.do(req, http.MethodGet, "/api/jobs/{id}"); err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob posts a new job. Employers only.
func (c *Client) CreateJob(ctx context.Context, job NewJob) (*Job, error) {
	var created Job
	req := c.http.R().SetContext(ctx).SetBody(job).SetResult(&created)
	if err := c.do(req, http.MethodPost, "/api/jobs"); err != nil {
		return nil, err
	}
	return &created, nil
}

// Apply submits the current worker's application to a job.
func (c *Client) Apply(ctx context.Context, jobID, coverLetter string) (*Application, error) {
	var app Application
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("id", jobID).
		SetBody(map[string]string{"coverLetter": coverLetter}).
		SetResult(&app)
	if err := c.do(req, http.MethodPost, "/api/jobs/{id}/apply"); err != nil {
		return nil, err
	}
	return &app, nil
}

// MyApplications lists the current worker's applications
func (c *Client) MyApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&apps), http.MethodGet, "/api/worker/applications"); err != nil {
		return nil, err
	}
	return apps, nil
}

// EmployerJobs lists the jobs posted by the current employer
func (c *Client) EmployerJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&jobs), http.MethodGet, "/api/employer/jobs"); err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobApplications lists applications to one of the employer's jobs
func (c *Client) JobApplications(ctx context.Context, jobID string) ([]Application, error) {
	var apps []Application
	req := c.http.R().SetContext(ctx).SetPathParam("id", jobID).SetResult(&apps)
	if err := c.do(req, http.MethodGet, "/api/employer/jobs/{id}/applications"); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application to status
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID string, update StatusUpdate) error {
	if !update.Status.Valid() {
		return apperrors.NewAppError(apperrors.CodeInvalidApplicationStatus,
			fmt.Sprintf("unknown application status %q", update.Status), http.StatusBadRequest)
	}
	req := c.http.R().SetContext(ctx).SetPathParam("id", applicationID).SetBody(update)
	return c.do(req, http.MethodPut, "/api/employer/applications/{id}/status")
}

// do sends req and turns a non-2xx answer into *apperrors.AppError.
func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return apperrors.FromResponse(resp.StatusCode(), resp.Body())
	}
	return nil
}
