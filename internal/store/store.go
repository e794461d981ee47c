// Package store persists the client's token pair and return URL.
//
// A Store is pure storage: it never validates or decodes what it holds. It is
// the only place tokens live; every other component reads through it.
package store

import (
	"context"

	"github.com/workconnect/session/internal/token"
)

// Fixed keys, shared by every backend.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyReturnURL    = "returnUrl"
)

// Store holds the token pair and the remembered return URL.
type Store interface {
	// Save persists both tokens, overwriting any previous pair.
	Save(ctx context.Context, pair token.Pair) error
	// SaveAccessToken replaces only the access token.
	SaveAccessToken(ctx context.Context, accessToken string) error
	// Read returns the current pair; missing tokens are empty strings.
	Read(ctx context.Context) (token.Pair, error)
	// Clear removes both tokens and the return URL.
	Clear(ctx context.Context) error

	SetReturnURL(ctx context.Context, url string) error
	// ConsumeReturnURL returns the return URL and deletes it.
	ConsumeReturnURL(ctx context.Context) (string, error)
}
