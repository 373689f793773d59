package authfw

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// OIDCAuthenticator delegates end-user authentication to an upstream OpenID
// Connect provider. The session data key doubles as the upstream state
// parameter, so the provider's redirect back to our /callback carries the
// correlation token for free.
type OIDCAuthenticator struct {
	provider     *oidc.Provider
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	results      ResultRepo
}

// OIDCConfig holds the upstream provider settings read from configuration.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string // our /callback endpoint, registered with the provider
}

// NewOIDCAuthenticator discovers the upstream provider and wires the result
// cache the callback handler writes into.
func NewOIDCAuthenticator(ctx context.Context, cfg OIDCConfig, results ResultRepo) (*OIDCAuthenticator, error) {
	if results == nil {
		return nil, errors.New("[NewOIDCAuthenticator] result repo is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCAuthenticator] provider discovery")
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &OIDCAuthenticator{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		results:      results,
	}, nil
}

// LoginURL builds the upstream authorization URL with the session data key
// as the state parameter.
func (a *OIDCAuthenticator) LoginURL(sessionDataKey string, params *oauthmodel.OAuth2Parameters) string {
	opts := []oauth2.AuthCodeOption{}
	if params != nil && params.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", params.LoginHint))
	}
	return a.oauth2Config.AuthCodeURL(sessionDataKey, opts...)
}

// HandleCallback exchanges the upstream authorization code, verifies the ID
// token, and stores the resulting AuthenticationResult in the result cache
// under the session data key (the state value). The caller then re-enters
// the authorize flow with SUCCESS_COMPLETED.
//
// An upstream error does not fail the callback: it is recorded as an
// unauthenticated Result so the flow can render the proper error redirect.
func (a *OIDCAuthenticator) HandleCallback(ctx context.Context, state, code, upstreamError, upstreamErrorDesc string) error {
	if state == "" {
		return errors.New("[OIDCAuthenticator.HandleCallback] missing state")
	}

	if upstreamError != "" {
		return a.results.Store(ctx, state, &Result{
			Authenticated: false,
			ErrorCode:     upstreamError,
			ErrorMessage:  upstreamErrorDesc,
		})
	}

	token, err := a.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return errors.Wrap(err, "[OIDCAuthenticator.HandleCallback] code exchange")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return errors.New("[OIDCAuthenticator.HandleCallback] no ID token in response")
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return errors.Wrap(err, "[OIDCAuthenticator.HandleCallback] ID token verification")
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return errors.Wrap(err, "[OIDCAuthenticator.HandleCallback] extract claims")
	}

	attributes := map[string]string{}
	if claims.Email != "" {
		attributes["email"] = claims.Email
	}
	if claims.Name != "" {
		attributes["name"] = claims.Name
	}

	result := &Result{
		Authenticated: true,
		Subject: &User{
			Subject:    claims.Sub,
			Attributes: attributes,
		},
	}
	return a.results.Store(ctx, state, result)
}
