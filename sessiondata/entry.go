// Package sessiondata holds the server-side state that ties the independent
// HTTP requests of one authorization flow together. Two logical partitions
// use the same mechanism: a login partition keyed by the session data key
// issued when the flow starts, and a consent partition keyed by a second key
// issued once authentication completes.
package sessiondata

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// ErrEntryNotFound is returned for keys that were never issued, have
// expired, or were already consumed. The cases are indistinguishable on
// purpose: an attacker replaying a key learns nothing from the error.
var ErrEntryNotFound = errors.New("session data entry not found")

const keyByteLength = 32

// Entry is the cached authorization context for one flow. The parameter
// snapshot never changes after creation; LoggedInUser is set exactly once,
// when authentication completes and the entry is re-stored under the
// consent key.
type Entry struct {
	Params       *oauthmodel.OAuth2Parameters
	LoggedInUser *authfw.User
	CreatedAt    time.Time
}

// Repo is the session data cache. Keys are single-use: Consume atomically
// retrieves and removes an entry, so a lookup racing another consumer
// observes either the full entry or a clean miss, never a partial entry.
// Entries expire after the repo's TTL; an expired entry is never returned.
type Repo interface {
	Store(ctx context.Context, key string, entry *Entry) error
	Consume(ctx context.Context, key string) (*Entry, error)
	Delete(ctx context.Context, key string) error
}

// NewKey generates an unguessable cache key. The key is the sole
// authorization to resume a flow, so it is drawn from crypto/rand.
func NewKey() (string, error) {
	buf := make([]byte, keyByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[sessiondata.NewKey] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
