package store

import (
	"context"
	"sync"

	"github.com/workconnect/session/internal/token"
)

// Memory is a process-local Store.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Save(_ context.Context, pair token.Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyAccessToken] = pair.AccessToken
	m.values[KeyRefreshToken] = pair.RefreshToken
	return nil
}

func (m *Memory) SaveAccessToken(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyAccessToken] = accessToken
	return nil
}

func (m *Memory) Read(_ context.Context) (token.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return token.Pair{
		AccessToken:  m.values[KeyAccessToken],
		RefreshToken: m.values[KeyRefreshToken],
	}, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, KeyAccessToken)
	delete(m.values, KeyRefreshToken)
	delete(m.values, KeyReturnURL)
	return nil
}

func (m *Memory) SetReturnURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyReturnURL] = url
	return nil
}

func (m *Memory) ConsumeReturnURL(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := m.values[KeyReturnURL]
	delete(m.values, KeyReturnURL)
	return url, nil
}
