package clients

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrClientNotFound is returned when no client is registered under an ID.
var ErrClientNotFound = errors.New("client not found")

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewInMemoryRepo creates a new in-memory client repository.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{clients: make(map[string]*Client)}
}

// Upsert creates or updates a client.
func (r *InMemoryRepo) Upsert(_ context.Context, client *Client) error {
	if client == nil {
		return errors.New("[InMemoryRepo.Upsert] client is required")
	}
	if client.ID == "" {
		return errors.New("[InMemoryRepo.Upsert] client ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *client
	r.clients[client.ID] = &cp
	return nil
}

// Get retrieves a client by ID.
func (r *InMemoryRepo) Get(_ context.Context, clientID string) (*Client, error) {
	if clientID == "" {
		return nil, ErrClientNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}

	cp := *client
	return &cp, nil
}

// Delete removes a client.
func (r *InMemoryRepo) Delete(_ context.Context, clientID string) error {
	if clientID == "" {
		return errors.New("[InMemoryRepo.Delete] clientID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, clientID)
	return nil
}
