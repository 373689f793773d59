package sessiondata

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type storedEntry struct {
	entry     *Entry
	expiresAt time.Time
}

// InMemoryRepo is a thread-safe in-memory implementation of Repo. Expiry is
// enforced lazily at lookup; abandoned entries are dropped the next time
// their key is touched or left for the process lifetime, which is acceptable
// for a single-node deployment.
type InMemoryRepo struct {
	mu      sync.Mutex
	entries map[string]storedEntry
	ttl     time.Duration
	nowTime func() time.Time
}

// InMemoryRepoOption modifies an InMemoryRepo.
type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the now time function (primarily for testing expiry).
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory session data cache with the given
// entry time-to-live.
func NewInMemoryRepo(ttl time.Duration, options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		entries: make(map[string]storedEntry),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Store saves an entry under key. The entry is copied so later mutations by
// the caller cannot reach the cached value.
func (r *InMemoryRepo) Store(_ context.Context, key string, entry *Entry) error {
	if key == "" {
		return errors.New("[InMemoryRepo.Store] key is required")
	}
	if entry == nil {
		return errors.New("[InMemoryRepo.Store] entry is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *entry
	r.entries[key] = storedEntry{
		entry:     &cp,
		expiresAt: r.nowTime().Add(r.ttl),
	}
	return nil
}

// Consume retrieves and removes the entry for key. A key that was never
// stored, has expired, or was already consumed yields ErrEntryNotFound.
func (r *InMemoryRepo) Consume(_ context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, ErrEntryNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.entries[key]
	if !ok {
		return nil, ErrEntryNotFound
	}
	delete(r.entries, key)

	if r.nowTime().After(stored.expiresAt) {
		return nil, ErrEntryNotFound
	}
	return stored.entry, nil
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (r *InMemoryRepo) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("[InMemoryRepo.Delete] key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}
