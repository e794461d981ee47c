package backend

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/workconnect/session/internal/api"
	apperrors "github.com/workconnect/session/pkg/errors"
)

const maxPageSize = 100

// AllApplications lists every application, newest first.
func (b *Board) AllApplications() []api.Application {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedApplications(func(string, *api.Application) bool { return true })
}

// ApplicationsByJob lists applications to jobID without an owner check.
func (b *Board) ApplicationsByJob(jobID string) ([]api.Application, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.jobs[jobID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return b.sortedApplications(func(_ string, a *api.Application) bool { return a.JobID == jobID }), nil
}

// Application returns one application
func (b *Board) Application(id string) (*api.Application, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.applications[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// Owner returns the ID of the employer who posted jobID.
func (b *Board) Owner(jobID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.owners[jobID]
}

// Applicant returns the ID of the worker behind applicationID.
func (b *Board) Applicant(applicationID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.applicants[applicationID]
}

// Activity counts userID's applications and job postings.
func (b *Board) Activity(userID string) (applications, postings int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, w := range b.applicants {
		if w == userID {
			applications++
		}
	}
	for _, e := range b.owners {
		if e == userID {
			postings++
		}
	}
	return applications, postings
}

// DeleteJob removes a job together with its applications.
func (b *Board) DeleteJob(jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.jobs[jobID]; !ok {
		return apperrors.ErrNotFound
	}
	b.deleteJobLocked(jobID)
	return nil
}

func (b *Board) deleteJobLocked(jobID string) {
	delete(b.jobs, jobID)
	delete(b.owners, jobID)
	for id, a := range b.applications {
		if a.JobID == jobID {
			delete(b.applications, id)
			delete(b.applicants, id)
		}
	}
}

// AllReviews lists every review, newest first.
func (b *Board) AllReviews() []api.Review {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedReviews(func(*api.Review) bool { return true })
}

// DeleteReview removes a review
func (b *Board) DeleteReview(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.reviews[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(b.reviews, id)
	delete(b.reviewers, id)
	return nil
}

// RemoveUser drops everything userID posted, applied to or reviewed.
func (b *Board) RemoveUser(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for jobID, owner := range b.owners {
		if owner == userID {
			b.deleteJobLocked(jobID)
		}
	}
	for id, w := range b.applicants {
		if w == userID {
			delete(b.applications, id)
			delete(b.applicants, id)
		}
	}
	for id, r := range b.reviews {
		if b.reviewers[id] == userID || r.Reviewee.ID == userID {
			delete(b.reviews, id)
			delete(b.reviewers, id)
		}
	}
}

// pageRequest is a parsed page/size/sortDir/search query.
type pageRequest struct {
	page   int
	size   int
	asc    bool
	search string
}

func parsePage(c *gin.Context) pageRequest {
	q := pageRequest{size: api.DefaultPageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		q.page = n
	}
	if n, err := strconv.Atoi(c.Query("size")); err == nil && n > 0 {
		q.size = min(n, maxPageSize)
	}
	q.asc = strings.EqualFold(c.Query("sortDir"), "asc")
	q.search = strings.ToLower(strings.TrimSpace(c.Query("search")))
	return q
}

// matches reports whether any of fields contains the search term.
func (q pageRequest) matches(fields ...string) bool {
	if q.search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q.search) {
			return true
		}
	}
	return false
}

// paginate slices items, which arrive newest first, into the requested page.
// sortDir=asc flips the order in place.
func paginate[T any](items []T, q pageRequest) api.Page[T] {
	if q.asc {
		for i, k := 0, len(items)-1; i < k; i, k = i+1, k-1 {
			items[i], items[k] = items[k], items[i]
		}
	}

	total := len(items)
	pages := (total + q.size - 1) / q.size
	start := min(q.page*q.size, total)
	end := min(start+q.size, total)
	content := items[start:end]

	return api.Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       pages,
		Size:             q.size,
		Number:           q.page,
		First:            q.page == 0,
		Last:             q.page >= pages-1,
		NumberOfElements: len(content),
	}
}
