package backend

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
)

// User is an account known to the dev backend.
type User struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	PasswordDigest string
	Role           token.Role
	Status         api.UserStatus
	CreatedAt      time.Time
}

// DisplayName is the full name, or the email when no name is set.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Public is the user as embedded in API responses.
func (u *User) Public() *api.User {
	return &api.User{
		ID:              u.ID,
		Email:           u.Email,
		Role:            u.Role,
		CompleteProfile: u.FirstName != "" && u.LastName != "",
		CreatedAt:       u.CreatedAt,
	}
}

// Directory is an in-memory user store keyed by email and ID.
type Directory struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

// Create adds a user with a bcrypt-hashed password.
func (d *Directory) Create(email, password string, role token.Role, firstName, lastName string) (*User, error) {
	digest, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:             uuid.New().String(),
		Email:          SanitizeEmail(email),
		FirstName:      firstName,
		LastName:       lastName,
		PasswordDigest: digest,
		Role:           role,
		Status:         api.UserActive,
		CreatedAt:      time.Now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[u.Email]; exists {
		return nil, apperrors.ErrEmailExists
	}
	d.byEmail[u.Email] = u
	d.byID[u.ID] = u
	return clone(u), nil
}

// FindByEmail returns a copy of the user, or nil when no user has that email.
func (d *Directory) FindByEmail(email string) *User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return clone(d.byEmail[SanitizeEmail(email)])
}

// FindByID returns a copy of the user, or nil when no user has that ID.
func (d *Directory) FindByID(id string) *User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return clone(d.byID[id])
}

func clone(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Authenticate checks email and password.
func (d *Directory) Authenticate(email, password string) (*User, error) {
	u := d.FindByEmail(email)
	if u == nil {
		// Same answer as a wrong password.
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := VerifyPassword(password, u.PasswordDigest); err != nil {
		if err == errPasswordMismatch {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.NewAppError(apperrors.CodeInternalServerError, err.Error(), http.StatusInternalServerError)
	}
	if u.Status != api.UserActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return u, nil
}

// List returns every user, oldest first.
func (d *Directory) List() []*User {
	d.mu.RLock()
	out := make([]*User, 0, len(d.byID))
	for _, u := range d.byID {
		out = append(out, clone(u))
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out
}

// SetStatus changes a user's moderation status.
func (d *Directory) SetStatus(id string, status api.UserStatus) error {
	if !status.Valid() {
		return apperrors.NewAppError(apperrors.CodeInvalidArgument, "Unknown user status", http.StatusBadRequest)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Status = status
	return nil
}

// Delete removes a user.
func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(d.byID, id)
	delete(d.byEmail, u.Email)
	return nil
}
