package api

import (
	"context"
	"net/http"
)

// CreateReview rates another user for a job both took part in.
func (c *Client) CreateReview(ctx context.Context, review NewReview) (*Review, error) {
	var created Review
	req := c.http.R().SetContext(ctx).SetBody(review).SetResult(&created)
	if err := c.do(req, http.MethodPost, "/reviews"); err != nil {
		return nil, err
	}
	return &created, nil
}

// ReviewsForUser lists the reviews a user received
func (c *Client) ReviewsForUser(ctx context.Context, userID string) ([]Review, error) {
	var reviews []Review
	req := c.http.R().SetContext(ctx).SetPathParam("id", userID).SetResult(&reviews)
	if err := c.do(req, http.MethodGet, "/reviews/user/{id}"); err != nil {
		return nil, err
	}
	return reviews, nil
}

// SubmitApplicationReview reviews a completed application. Workers only.
func (c *Client) SubmitApplicationReview(ctx context.Context, applicationID string, review ReviewSubmission) (*ApplicationReview, error) {
	var created ApplicationReview
	req := c.http.R().SetContext(ctx).SetPathParam("id", applicationID).SetBody(review).SetResult(&created)
	if err := c.do(req, http.MethodPost, "/api/applications/{id}/review"); err != nil {
		return nil, err
	}
	return &created, nil
}

// ApplicationStatus reports whether the current worker applied to jobID.
func (c *Client) ApplicationStatus(ctx context.Context, jobID string) (*ApplicationCheck, error) {
	var check ApplicationCheck
	req := c.http.R().SetContext(ctx).SetPathParam("id", jobID).SetResult(&check)
	if err := c.do(req, http.MethodGet, "/api/jobs/{id}/application-status"); err != nil {
		return nil, err
	}
	return &check, nil
}
