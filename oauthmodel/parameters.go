package oauthmodel

import "strings"

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth2/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// ResponseModeType denotes how the authorization response parameters are returned to the client.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Example: https://client.example.com/callback?code=ABC123&state=xyz
	QueryResponseMode ResponseModeType = "query"

	// FormPostResponseMode delivers the result indirectly: the endpoint responds
	// 200 with a JSON body {"url": "<redirect target>"} and a browser-side form
	// auto-posts to that URL instead of following a 3xx redirect.
	FormPostResponseMode ResponseModeType = "form_post"
)

// OpenIDScope marks an authorization request as an OpenID Connect request
// when present in the requested scope set.
const OpenIDScope = "openid"

// OAuth2Parameters is the frozen snapshot of an authorization request's
// protocol parameters. It is captured once when a fresh request is accepted,
// carried unchanged through the whole flow via the session data cache, and is
// invariant once the flow reaches the authenticated-pending-consent state.
type OAuth2Parameters struct {
	// ClientID identifies the application requesting authorization.
	// Validated against the client store before the flow proceeds.
	ClientID string

	// ApplicationName is the display name of the client application,
	// resolved from the client store. Consent approvals are recorded
	// against this name.
	ApplicationName string

	// Scopes is the requested scope set. Unordered, case-sensitive.
	// Presence of "openid" marks the request as OIDC.
	Scopes []string

	// ResponseType specifies what the authorization endpoint should return.
	// Only "code" is supported.
	ResponseType ResponseType

	// ResponseMode controls how the terminal result is delivered:
	// "form_post" selects the indirect 200+JSON shape, anything else a
	// direct 302 redirect.
	ResponseMode ResponseModeType

	// RedirectURI is where the authorization response will be sent.
	// Must exactly match a pre-registered URI for the client; until that
	// check has passed it is never used as a redirect target.
	RedirectURI string

	// State is an opaque client value echoed back unchanged on both
	// success and error redirects.
	State string

	// Nonce associates a client session with an ID token. Passed through
	// unchanged; consumed by token issuance, not by this endpoint.
	Nonce string

	// LoginHint pre-fills the username on the login page. UI hint only,
	// never trusted.
	LoginHint string

	// IDTokenHint carries a previously issued ID token. The subject claim
	// is extracted (without signature verification) and forwarded to the
	// authentication framework as a login hint.
	IDTokenHint string
}

// IsOIDC reports whether the request carries the openid scope.
func (p *OAuth2Parameters) IsOIDC() bool {
	return p.HasScope(OpenIDScope)
}

// HasScope reports whether the requested scope set contains scope.
func (p *OAuth2Parameters) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// SplitScopes parses a space-separated scope parameter into a scope set,
// dropping empty segments.
func SplitScopes(scope string) []string {
	return strings.Fields(scope)
}
