// Package authfw models the boundary to the external authentication
// framework: the outcome it produces, the cache it is retrieved from when
// authentication finishes on a different request, and the redirect that
// hands the user agent over to it.
package authfw

import "context"

// FlowStatus is the marker the authentication framework attaches to a
// request when it hands control back to the authorization endpoint.
type FlowStatus string

const (
	// FlowStatusIncomplete means the framework round trip has not reached a
	// terminal decision: either authentication is still in progress or the
	// request is a consent-page postback.
	FlowStatusIncomplete FlowStatus = "INCOMPLETE"

	// FlowStatusSuccessCompleted means the framework has concluded; the
	// AuthenticationResult states whether the user actually authenticated.
	FlowStatusSuccessCompleted FlowStatus = "SUCCESS_COMPLETED"
)

// User is the identity of an authenticated subject as reported by the
// authentication framework.
type User struct {
	Subject    string
	Attributes map[string]string
}

// Result is the outcome of one authentication attempt. Produced exactly once
// by the framework and consumed exactly once by the flow controller, either
// inline on the continuation request or through a ResultRepo lookup keyed by
// the session data key.
type Result struct {
	Authenticated bool
	Subject       *User

	// Error fields are set by the framework when Authenticated is false.
	ErrorCode    string
	ErrorMessage string
	ErrorURI     string
}

// ResultRepo is the second-level cache holding authentication results across
// the redirect back from an external login application. A result is removed
// when read; a second lookup for the same key behaves as a miss.
type ResultRepo interface {
	Store(ctx context.Context, sessionDataKey string, result *Result) error
	Consume(ctx context.Context, sessionDataKey string) (*Result, error)
}
