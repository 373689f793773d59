package authfw

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrResultNotFound is returned when no result exists for a key, the result
// has expired, or it was already consumed. The three cases are deliberately
// indistinguishable.
var ErrResultNotFound = errors.New("authentication result not found")

type storedResult struct {
	result    *Result
	expiresAt time.Time
}

// InMemoryResultRepo is a thread-safe in-memory implementation of ResultRepo.
type InMemoryResultRepo struct {
	mu      sync.Mutex
	results map[string]storedResult
	ttl     time.Duration
	nowTime func() time.Time
}

// NewInMemoryResultRepo creates an in-memory result cache. Entries not
// consumed within ttl become unresolvable.
func NewInMemoryResultRepo(ttl time.Duration) *InMemoryResultRepo {
	return &InMemoryResultRepo{
		results: make(map[string]storedResult),
		ttl:     ttl,
		nowTime: time.Now,
	}
}

// Store saves the result under the session data key.
func (r *InMemoryResultRepo) Store(_ context.Context, sessionDataKey string, result *Result) error {
	if sessionDataKey == "" {
		return errors.New("[InMemoryResultRepo.Store] sessionDataKey is required")
	}
	if result == nil {
		return errors.New("[InMemoryResultRepo.Store] result is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *result
	r.results[sessionDataKey] = storedResult{
		result:    &cp,
		expiresAt: r.nowTime().Add(r.ttl),
	}
	return nil
}

// Consume retrieves and removes the result for the session data key.
// Expiry is enforced at lookup; an expired entry is a miss.
func (r *InMemoryResultRepo) Consume(_ context.Context, sessionDataKey string) (*Result, error) {
	if sessionDataKey == "" {
		return nil, ErrResultNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.results[sessionDataKey]
	if !ok {
		return nil, ErrResultNotFound
	}
	delete(r.results, sessionDataKey)

	if r.nowTime().After(stored.expiresAt) {
		return nil, ErrResultNotFound
	}
	return stored.result, nil
}
