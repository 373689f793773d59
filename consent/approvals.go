// Package consent decides whether an authorization request needs an explicit
// consent decision from the end user, and records the decisions users make.
package consent

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ApprovalStore remembers which (subject, application) pairs have blanket
// approval for which scopes. The production implementation persists to the
// identity store; the in-memory implementation backs tests and single-node
// deployments.
type ApprovalStore interface {
	// HasApproved reports whether every scope in scopes was previously
	// approved by subject for application.
	HasApproved(ctx context.Context, subject, application string, scopes []string) (bool, error)

	// Approve records blanket approval of scopes by subject for application.
	Approve(ctx context.Context, subject, application string, scopes []string) error
}

// InMemoryApprovalStore is a thread-safe in-memory ApprovalStore.
type InMemoryApprovalStore struct {
	mu sync.RWMutex
	// subject -> application -> approved scope set
	approvals map[string]map[string]map[string]struct{}
}

// NewInMemoryApprovalStore creates an empty approval store.
func NewInMemoryApprovalStore() *InMemoryApprovalStore {
	return &InMemoryApprovalStore{approvals: make(map[string]map[string]map[string]struct{})}
}

// HasApproved implements ApprovalStore. An empty scope list is trivially
// approved.
func (s *InMemoryApprovalStore) HasApproved(_ context.Context, subject, application string, scopes []string) (bool, error) {
	if subject == "" || application == "" {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	approved := s.approvals[subject][application]
	if approved == nil {
		return false, nil
	}
	for _, scope := range scopes {
		if _, ok := approved[scope]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Approve implements ApprovalStore.
func (s *InMemoryApprovalStore) Approve(_ context.Context, subject, application string, scopes []string) error {
	if subject == "" {
		return errors.New("[InMemoryApprovalStore.Approve] subject is required")
	}
	if application == "" {
		return errors.New("[InMemoryApprovalStore.Approve] application is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.approvals[subject] == nil {
		s.approvals[subject] = make(map[string]map[string]struct{})
	}
	if s.approvals[subject][application] == nil {
		s.approvals[subject][application] = make(map[string]struct{})
	}
	for _, scope := range scopes {
		s.approvals[subject][application][scope] = struct{}{}
	}
	return nil
}
