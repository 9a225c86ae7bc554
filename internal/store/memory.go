package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/BY1502/ai-interview-service/internal/workflow"
)

type clientEntry struct {
	state     ClientState
	expiresAt time.Time
}

// MemoryClients is a ClientStore for single-instance deployments.
type MemoryClients struct {
	mu   sync.RWMutex
	ttl  time.Duration
	byID map[string]clientEntry
	now  func() time.Time
}

func NewMemoryClients(ttl time.Duration) *MemoryClients {
	return &MemoryClients{ttl: ttl, byID: map[string]clientEntry{}, now: time.Now}
}

func (m *MemoryClients) Get(_ context.Context, clientID string) (*ClientState, error) {
	m.mu.RLock()
	e, ok := m.byID[clientID]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	st := e.state
	st.Credentials = copyCredentials(e.state.Credentials)
	return &st, nil
}

func (m *MemoryClients) Put(_ context.Context, state *ClientState) error {
	st := *state
	st.Credentials = copyCredentials(state.Credentials)
	st.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[st.ClientID] = clientEntry{state: st, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryClients) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, clientID)
	return nil
}

type workspaceEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryWorkspaces keeps workspaces as encoded snapshots so callers never
// share mutable state with the store.
type MemoryWorkspaces struct {
	mu   sync.Mutex
	ttl  time.Duration
	byID map[string]workspaceEntry
	now  func() time.Time
}

func NewMemoryWorkspaces(ttl time.Duration) *MemoryWorkspaces {
	return &MemoryWorkspaces{ttl: ttl, byID: map[string]workspaceEntry{}, now: time.Now}
}

func (m *MemoryWorkspaces) Create(_ context.Context, ws *workflow.Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.byID[ws.VisitID] = workspaceEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryWorkspaces) Get(_ context.Context, visitID string) (*workflow.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(visitID)
	if !ok {
		return nil, workflow.ErrVisitNotFound
	}
	return decodeWorkspace(e.data)
}

func (m *MemoryWorkspaces) Update(_ context.Context, visitID string, fn func(*workflow.Workspace) error) (*workflow.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(visitID)
	if !ok {
		return nil, workflow.ErrVisitNotFound
	}
	ws, err := decodeWorkspace(e.data)
	if err != nil {
		return nil, err
	}
	if err := fn(ws); err != nil {
		return nil, err
	}
	data, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("encode workspace: %w", err)
	}
	e.data = data
	m.byID[visitID] = e
	return ws, nil
}

func (m *MemoryWorkspaces) lookup(visitID string) (workspaceEntry, bool) {
	e, ok := m.byID[visitID]
	if !ok {
		return e, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.byID, visitID)
		return e, false
	}
	return e, true
}

// sweep drops expired visits; called with mu held.
func (m *MemoryWorkspaces) sweep() {
	now := m.now()
	for id, e := range m.byID {
		if now.After(e.expiresAt) {
			delete(m.byID, id)
		}
	}
}

func decodeWorkspace(data []byte) (*workflow.Workspace, error) {
	var ws workflow.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	return &ws, nil
}

// MemoryPreferences is used when no database is configured.
type MemoryPreferences struct {
	mu   sync.RWMutex
	urls map[string]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{urls: map[string]string{}}
}

func (m *MemoryPreferences) BackendURL(_ context.Context, clientID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.urls[clientID]
	if !ok {
		return "", ErrNotFound
	}
	return u, nil
}

func (m *MemoryPreferences) SetBackendURL(_ context.Context, clientID, backendURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[clientID] = backendURL
	return nil
}
