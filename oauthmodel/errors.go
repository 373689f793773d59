package oauthmodel

import "errors"

// OAuth2 error codes carried in the "error" response parameter (RFC 6749 §4.1.2.1,
// OIDC Core §3.1.2.6).
const (
	ErrorInvalidRequest          = "invalid_request"
	ErrorUnauthorizedClient      = "unauthorized_client"
	ErrorAccessDenied            = "access_denied"
	ErrorServerError             = "server_error"
	ErrorLoginRequired           = "login_required"
	ErrorUnsupportedResponseType = "unsupported_response_type"
)

var (
	ErrInvalidRedirectURI  = errors.New("invalid or no redirect uri")
	ErrInvalidResponseMode = errors.New("invalid response mode")
	ErrInvalidResponseType = errors.New("unsupported response type")
	ErrInvalidClientID     = errors.New("invalid client id")
)
