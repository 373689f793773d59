package flow

import (
	"net/url"

	"github.com/golang-jwt/jwt/v5"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// Request parameter names on the authorize endpoint wire.
const (
	ParamClientID          = "client_id"
	ParamScope             = "scope"
	ParamRedirectURI       = "redirect_uri"
	ParamResponseType      = "response_type"
	ParamResponseMode      = "response_mode"
	ParamState             = "state"
	ParamNonce             = "nonce"
	ParamLoginHint         = "login_hint"
	ParamIDTokenHint       = "id_token_hint"
	ParamConsent           = "consent"
	ParamConsentKey        = "sessionDataKeyConsent"
	ParamSessionDataKey    = "sessionDataKey"
	ParamToCommonAuth      = "tocommonauth"
	ParamAuthnFlowStatus   = "authenticatorFlowStatus"
)

// Consent decision values posted back from the consent page. Matching is by
// prefix, so "approveAlways"/"denyForever" style variants map with their
// base decision.
const (
	ConsentApprove = "approve"
	ConsentDeny    = "deny"
)

// Request is the transport-agnostic view of one inbound call to the
// authorize endpoint. Params carries the request parameters (query string or
// form body); the remaining fields are the continuation attributes the
// authentication framework attaches when it hands control back — either as
// parameters on its redirect or set directly when the callback handler
// re-enters the flow in-process.
type Request struct {
	Method string
	Params url.Values

	FlowStatus     authfw.FlowStatus
	SessionDataKey string
	AuthResult     *authfw.Result
}

// Param returns the first value of the named request parameter, or "".
func (r *Request) Param(name string) string {
	return r.Params.Get(name)
}

// DuplicateParam returns the name of the first parameter mapped to more than
// one value. Multi-valued protocol parameters in a POST body make the
// request malformed.
func (r *Request) DuplicateParam() (string, bool) {
	for name, values := range r.Params {
		if len(values) > 1 {
			return name, true
		}
	}
	return "", false
}

// parameters builds the frozen OAuth2Parameters snapshot from the request,
// filling the application name from the validated client. When no explicit
// login_hint was sent, the subject of an id_token_hint (claims read without
// signature verification; the hint only seeds the login page) is used
// instead.
func (r *Request) parameters(applicationName string) *oauthmodel.OAuth2Parameters {
	params := &oauthmodel.OAuth2Parameters{
		ClientID:        r.Param(ParamClientID),
		ApplicationName: applicationName,
		Scopes:          oauthmodel.SplitScopes(r.Param(ParamScope)),
		ResponseType:    oauthmodel.ResponseType(r.Param(ParamResponseType)),
		ResponseMode:    oauthmodel.ResponseModeType(r.Param(ParamResponseMode)),
		RedirectURI:     r.Param(ParamRedirectURI),
		State:           r.Param(ParamState),
		Nonce:           r.Param(ParamNonce),
		LoginHint:       r.Param(ParamLoginHint),
		IDTokenHint:     r.Param(ParamIDTokenHint),
	}

	if params.LoginHint == "" && params.IDTokenHint != "" {
		params.LoginHint = subjectFromIDTokenHint(params.IDTokenHint)
	}
	return params
}

// subjectFromIDTokenHint extracts the sub claim from a previously issued ID
// token. The signature is not verified: the value is only ever used as a
// UI hint, never as an authenticated identity.
func subjectFromIDTokenHint(hint string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(hint, claims); err != nil {
		return ""
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return subject
}
