// Package api wraps the job marketplace REST endpoints. Requests go through
// the session transport, so callers never handle tokens.
package api

import (
	"time"

	"github.com/workconnect/session/internal/token"
)

// User as embedded in jobs and applications
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Role            token.Role `json:"userRole"`
	CompleteProfile bool       `json:"completeProfile"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Job is a posted job
type Job struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Location       string        `json:"location"`
	Salary         string        `json:"salary"`
	RequiredSkills string        `json:"requiredSkills"`
	PostedBy       *User         `json:"postedBy,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Applications   []Application `json:"jobApplications,omitempty"`
}

// NewJob is the create-job request body
type NewJob struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	Salary         string `json:"salary"`
	RequiredSkills string `json:"requiredSkills"`
}

// ApplicationStatus of a job application
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "PENDING"
	StatusViewed    ApplicationStatus = "VIEWED"
	StatusAccepted  ApplicationStatus = "ACCEPTED"
	StatusRejected  ApplicationStatus = "REJECTED"
	StatusCompleted ApplicationStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusViewed, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Application is a worker's application to a job
type Application struct {
	ID          string             `json:"id"`
	JobID       string             `json:"jobId"`
	Job         *Job               `json:"job,omitempty"`
	Applicant   *User              `json:"applicant,omitempty"`
	Status      ApplicationStatus  `json:"status"`
	AppliedAt   time.Time          `json:"appliedAt"`
	CoverLetter string             `json:"coverLetter,omitempty"`
	Review      *ApplicationReview `json:"review,omitempty"`
}

// StatusUpdate is the body of an application status change
type StatusUpdate struct {
	Status ApplicationStatus `json:"status"`
	Notes  string            `json:"notes,omitempty"`
}

// ApplicationCheck answers whether the current worker applied to a job.
type ApplicationCheck struct {
	HasApplied    bool              `json:"hasApplied"`
	ApplicationID string            `json:"applicationId,omitempty"`
	Status        ApplicationStatus `json:"status,omitempty"`
}

// Review bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of another after a job
type Review struct {
	ID        string    `json:"id"`
	Job       *Job      `json:"job,omitempty"`
	Reviewer  *User     `json:"reviewer,omitempty"`
	Reviewee  *User     `json:"reviewee,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReview is the create-review request body
type NewReview struct {
	JobID      string `json:"jobId"`
	RevieweeID string `json:"revieweeId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// ReviewSubmission rates a completed application
type ReviewSubmission struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ApplicationReview is the review attached to a completed application
type ApplicationReview struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}
