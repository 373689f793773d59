package authfw

import (
	"net/url"

	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// Mode selects which Authenticator implementation is constructed at startup.
type Mode string

const (
	ModeCommonAuth Mode = "commonauth"
	ModeOIDC       Mode = "oidc"
)

// Authenticator is the strategy that decides where the user agent is sent to
// authenticate. Exactly two implementations exist — the commonauth-style
// login application and a federated upstream OIDC provider — and the choice
// is made once at startup from configuration.
type Authenticator interface {
	// LoginURL builds the redirect target that hands the user agent to the
	// authentication framework, carrying the session data key so the flow
	// can be resumed when the framework redirects back.
	LoginURL(sessionDataKey string, params *oauthmodel.OAuth2Parameters) string
}

// CommonAuthAuthenticator redirects to a co-deployed login application that
// authenticates the user and sends the browser back to the authorize
// endpoint with authenticatorFlowStatus=SUCCESS_COMPLETED and the same
// session data key.
type CommonAuthAuthenticator struct {
	loginPageURL string
}

// NewCommonAuthAuthenticator creates the login-application strategy.
// loginPageURL is the absolute URL of the external login page.
func NewCommonAuthAuthenticator(loginPageURL string) *CommonAuthAuthenticator {
	return &CommonAuthAuthenticator{loginPageURL: loginPageURL}
}

// LoginURL appends the flow correlation parameters to the login page URL.
func (a *CommonAuthAuthenticator) LoginURL(sessionDataKey string, params *oauthmodel.OAuth2Parameters) string {
	u, err := url.Parse(a.loginPageURL)
	if err != nil {
		// The URL comes from startup configuration; a parse failure here
		// means the deployment is broken, not the request.
		return a.loginPageURL
	}

	q := u.Query()
	q.Set("sessionDataKey", sessionDataKey)
	q.Set("type", "oauth2")
	if params != nil && params.LoginHint != "" {
		q.Set("login_hint", params.LoginHint)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
