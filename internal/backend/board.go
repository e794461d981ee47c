package backend

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workconnect/session/internal/api"
	apperrors "github.com/workconnect/session/pkg/errors"
)

// Board is the in-memory job board: jobs, the applications to them and the
// reviews users leave each other.
type Board struct {
	mu           sync.RWMutex
	jobs         map[string]*api.Job
	owners       map[string]string // job ID -> employer ID
	applications map[string]*api.Application
	applicants   map[string]string // application ID -> worker ID
	reviews      map[string]*api.Review
	reviewers    map[string]string // review ID -> reviewer ID
	now          func() time.Time
}

// NewBoard creates an empty job board
func NewBoard() *Board {
	return &Board{
		jobs:         make(map[string]*api.Job),
		owners:       make(map[string]string),
		applications: make(map[string]*api.Application),
		applicants:   make(map[string]string),
		reviews:      make(map[string]*api.Review),
		reviewers:    make(map[string]string),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List returns every job, newest first.
func (b *Board) List() []api.Job {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedJobs(func(string) bool { return true })
}

// Get returns one job
func (b *Board) Get(id string) (*api.Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	j, ok := b.jobs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

// Create posts a job owned by employer.
func (b *Board) Create(employer *User, in api.NewJob) *api.Job {
	now := b.now()
	j := &api.Job{
		ID:             uuid.New().String(),
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		Salary:         in.Salary,
		RequiredSkills: in.RequiredSkills,
		PostedBy:       employer.Public(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	b.mu.Lock()
	b.jobs[j.ID] = j
	b.owners[j.ID] = employer.ID
	b.mu.Unlock()

	cp := *j
	return &cp
}

// ByEmployer lists the jobs posted by employerID.
func (b *Board) ByEmployer(employerID string) []api.Job {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedJobs(func(id string) bool { return b.owners[id] == employerID })
}

// Apply records worker's application to jobID. A worker applies at most once
// per job.
func (b *Board) Apply(jobID string, worker *User, coverLetter string) (*api.Application, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	j, ok := b.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for id, a := range b.applications {
		if a.JobID == jobID && b.applicants[id] == worker.ID {
			return nil, apperrors.NewAppError(apperrors.CodeDuplicateApplication,
				"You have already applied for this job", http.StatusConflict)
		}
	}

	jobCopy := *j
	a := &api.Application{
		ID:          uuid.New().String(),
		JobID:       jobID,
		Job:         &jobCopy,
		Applicant:   worker.Public(),
		Status:      api.StatusPending,
		AppliedAt:   b.now(),
		CoverLetter: coverLetter,
	}
	b.applications[a.ID] = a
	b.applicants[a.ID] = worker.ID

	cp := *a
	return &cp, nil
}

// ByWorker lists workerID's applications, newest first.
func (b *Board) ByWorker(workerID string) []api.Application {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedApplications(func(id string, _ *api.Application) bool { return b.applicants[id] == workerID })
}

// ApplicationsFor lists applications to jobID. Only the job's owner may see
// them.
func (b *Board) ApplicationsFor(jobID, employerID string) ([]api.Application, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	owner, ok := b.owners[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if owner != employerID {
		return nil, apperrors.ErrAccessDenied
	}
	return b.sortedApplications(func(_ string, a *api.Application) bool { return a.JobID == jobID }), nil
}

// UpdateStatus moves an application to status on behalf of the job's owner.
func (b *Board) UpdateStatus(applicationID, employerID string, status api.ApplicationStatus) error {
	if !status.Valid() {
		return apperrors.NewAppError(apperrors.CodeInvalidApplicationStatus, "Unknown application status", http.StatusBadRequest)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.applications[applicationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.owners[a.JobID] != employerID {
		return apperrors.ErrAccessDenied
	}
	a.Status = status
	return nil
}

func (b *Board) sortedJobs(keep func(id string) bool) []api.Job {
	out := make([]api.Job, 0, len(b.jobs))
	for id, j := range b.jobs {
		if keep(id) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

func (b *Board) sortedApplications(keep func(id string, a *api.Application) bool) []api.Application {
	out := make([]api.Application, 0)
	for id, a := range b.applications {
		if keep(id, a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt) })
	return out
}
