// Package store keeps per-browser state between requests: the backend
// credentials of each client and the answer workspaces of open interview
// visits. Both live in redis when it is configured and in process memory
// otherwise.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// ClientState is what the server remembers about one browser.
type ClientState struct {
	ClientID string `json:"client_id"`
	// Credentials are the backend's cookies, name to value.
	Credentials map[string]string `json:"credentials"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func NewClientState(clientID string) *ClientState {
	return &ClientState{ClientID: clientID, Credentials: map[string]string{}}
}

type ClientStore interface {
	// Get returns ErrNotFound for unknown or expired clients.
	Get(ctx context.Context, clientID string) (*ClientState, error)
	Put(ctx context.Context, state *ClientState) error
	Delete(ctx context.Context, clientID string) error
}

// Preferences holds settings a client chose at runtime.
type Preferences interface {
	// BackendURL returns ErrNotFound when the client never chose one.
	BackendURL(ctx context.Context, clientID string) (string, error)
	SetBackendURL(ctx context.Context, clientID, backendURL string) error
}

func copyCredentials(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
