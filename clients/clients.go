package clients

import (
	"golang.org/x/crypto/bcrypt"
)

// Status is the lifecycle state of a registered client application.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE" // registered but disabled; requests naming it are rejected
)

// Client is a registered OAuth2 client application.
type Client struct {
	ID              string   `json:"id"`
	ApplicationName string   `json:"applicationName"`
	Status          Status   `json:"status"`
	SecretHash      string   `json:"secretHash"`
	RedirectURIs    []string `json:"redirectURIs"`
}

// IsActive reports whether the client may start authorization flows.
func (c *Client) IsActive() bool {
	return c.Status == StatusActive
}

// SetSecret hashes and stores the client secret. The plaintext secret is
// never persisted.
func (c *Client) SetSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.SecretHash = string(hash)
	return nil
}

// CheckSecret compares a presented secret against the stored hash.
func (c *Client) CheckSecret(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// HasRedirectURI checks the presented redirect URI against the registered
// whitelist. Exact string match only; no prefix or wildcard matching, to
// prevent open redirects.
func (c *Client) HasRedirectURI(redirectURI string) bool {
	for _, uri := range c.RedirectURIs {
		if uri == redirectURI {
			return true
		}
	}
	return false
}
