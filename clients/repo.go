package clients

import "context"

// Repo is the persistence boundary for client application metadata. The
// production implementation lives in the identity store; the in-memory
// implementation backs tests and single-node deployments.
type Repo interface {
	Upsert(ctx context.Context, client *Client) error
	Get(ctx context.Context, clientID string) (*Client, error)
	Delete(ctx context.Context, clientID string) error
}
