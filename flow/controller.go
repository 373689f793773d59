// Package flow implements the authorization endpoint's state machine: it
// classifies each inbound request by its continuation attributes, drives the
// login and consent round trips through the session data cache, and builds
// the terminal success or error response.
package flow

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/clients"
	"github.com/halcyon-id/go-authz-endpoint/consent"
	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
	"github.com/halcyon-id/go-authz-endpoint/sessiondata"
)

// ClientValidator validates a client_id for the authorization flow.
type ClientValidator interface {
	Validate(ctx context.Context, clientID string) (*clients.ValidationResult, error)
}

// Services groups the collaborators the Controller needs.
type Services struct {
	SessionData   sessiondata.Repo
	AuthResults   authfw.ResultRepo
	Clients       ClientValidator
	Approvals     consent.ApprovalStore
	Consent       *consent.Evaluator
	Authenticator authfw.Authenticator
}

// Controller runs the authorization flow. It is safe for concurrent use; all
// per-flow state lives in the session data cache, keyed by single-use keys.
type Controller struct {
	services       Services
	consentPageURL string
	errorPageURL   string
	nowTime        func() time.Time
}

// ControllerOption configures optional Controller behaviour.
type ControllerOption func(*Controller)

// WithErrorPageURL sets the page pre-validation errors are redirected to.
// Without one, those errors are returned as direct JSON bodies.
func WithErrorPageURL(u string) ControllerOption {
	return func(c *Controller) { c.errorPageURL = u }
}

// WithNowTime overrides the clock used for cache entry timestamps.
func WithNowTime(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.nowTime = now }
}

// NewController creates a Controller. consentPageURL is where users are sent
// when a flow needs an explicit consent decision.
func NewController(services Services, consentPageURL string, options ...ControllerOption) (*Controller, error) {
	if services.SessionData == nil {
		return nil, errors.New("[NewController] session data repo is required")
	}
	if services.AuthResults == nil {
		return nil, errors.New("[NewController] auth result repo is required")
	}
	if services.Clients == nil {
		return nil, errors.New("[NewController] client validator is required")
	}
	if services.Approvals == nil {
		return nil, errors.New("[NewController] approval store is required")
	}
	if services.Consent == nil {
		return nil, errors.New("[NewController] consent evaluator is required")
	}
	if services.Authenticator == nil {
		return nil, errors.New("[NewController] authenticator is required")
	}
	if consentPageURL == "" {
		return nil, errors.New("[NewController] consent page URL is required")
	}

	c := &Controller{
		services:       services,
		consentPageURL: consentPageURL,
		nowTime:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Authorize runs one step of the authorization flow and returns the response
// to deliver. Classification order: a consent postback (identified by its
// consent key) is resolved first, then requests without a flow status start a
// fresh flow, INCOMPLETE hands the browser back to the authentication
// framework, and SUCCESS_COMPLETED resumes the flow with the authentication
// outcome.
func (c *Controller) Authorize(ctx context.Context, req *Request) *Response {
	if req.Param(ParamConsentKey) != "" && req.FlowStatus != authfw.FlowStatusSuccessCompleted {
		return c.handleConsentResult(ctx, req)
	}

	switch req.FlowStatus {
	case "":
		return c.handleInitialRequest(ctx, req)
	case authfw.FlowStatusIncomplete:
		return c.handleFrameworkContinuation(ctx, req)
	case authfw.FlowStatusSuccessCompleted:
		return c.handleAuthenticationResult(ctx, req)
	default:
		return c.errorPageRedirect(oauthmodel.ErrorInvalidRequest, "unrecognised authentication flow status", http.StatusBadRequest)
	}
}

// AuthorizePost handles the POST form of the endpoint. A parameter bound to
// more than one value makes the request malformed before any classification
// happens.
func (c *Controller) AuthorizePost(ctx context.Context, req *Request) *Response {
	if name, ok := req.DuplicateParam(); ok {
		return errorBody(http.StatusBadRequest, oauthmodel.ErrorInvalidRequest,
			"duplicate value for parameter "+name)
	}
	return c.Authorize(ctx, req)
}

// handleInitialRequest starts a fresh flow: validate the client, freeze the
// parameter snapshot, cache it under a new session data key and send the user
// agent to the authentication framework.
func (c *Controller) handleInitialRequest(ctx context.Context, req *Request) *Response {
	clientID := req.Param(ParamClientID)
	if clientID == "" {
		return c.errorPageRedirect(oauthmodel.ErrorInvalidRequest, "client_id is required", http.StatusBadRequest)
	}

	validation, err := c.services.Clients.Validate(ctx, clientID)
	if err != nil {
		return c.serverError(err)
	}
	if !validation.Valid {
		return c.errorPageRedirect(oauthmodel.ErrorInvalidRequest, oauthmodel.ErrInvalidClientID.Error(), http.StatusBadRequest)
	}
	if !validation.Active {
		return errorBody(http.StatusUnauthorized, oauthmodel.ErrorUnauthorizedClient, "client application is not active")
	}

	params := req.parameters(validation.ApplicationName)
	if !registeredRedirectURI(validation.RedirectURIs, params.RedirectURI) {
		return c.errorPageRedirect(oauthmodel.ErrorInvalidRequest, oauthmodel.ErrInvalidRedirectURI.Error(), http.StatusBadRequest)
	}
	if params.ResponseType != "" && params.ResponseType != oauthmodel.CodeResponseType {
		// The redirect URI is validated at this point, so the error is
		// reportable to the client directly.
		return c.clientErrorRedirect(params, oauthmodel.ErrorUnsupportedResponseType, oauthmodel.ErrInvalidResponseType.Error(), "")
	}

	sessionDataKey, err := sessiondata.NewKey()
	if err != nil {
		return c.serverError(err)
	}
	entry := &sessiondata.Entry{Params: params, CreatedAt: c.nowTime()}
	if err := c.services.SessionData.Store(ctx, sessionDataKey, entry); err != nil {
		return c.serverError(err)
	}

	log.Debug().Str("clientID", clientID).Msg("authorization flow started")
	return redirect(c.services.Authenticator.LoginURL(sessionDataKey, params))
}

// handleFrameworkContinuation covers the INCOMPLETE status: the
// authentication framework has not finished with the user yet and the
// request must be handed straight back to it.
func (c *Controller) handleFrameworkContinuation(ctx context.Context, req *Request) *Response {
	key := c.sessionDataKey(req)
	if key == "" {
		return c.errorPageRedirect(oauthmodel.ErrorInvalidRequest,
			"authentication flow returned without a session data key", http.StatusBadRequest)
	}
	return redirect(c.services.Authenticator.LoginURL(key, nil))
}

// handleAuthenticationResult resumes a flow after the framework reports
// SUCCESS_COMPLETED: recover the parameter snapshot, resolve the
// authentication outcome, and either finish with an error, finish with a
// success response, or detour via the consent page.
func (c *Controller) handleAuthenticationResult(ctx context.Context, req *Request) *Response {
	key := c.sessionDataKey(req)
	if key == "" {
		return errorBody(http.StatusBadRequest, oauthmodel.ErrorInvalidRequest, "sessionDataKey is required")
	}

	entry, err := c.services.SessionData.Consume(ctx, key)
	if errors.Is(err, sessiondata.ErrEntryNotFound) {
		return c.errorPageRedirect(oauthmodel.ErrorAccessDenied,
			"authorization request expired or already completed", http.StatusForbidden)
	}
	if err != nil {
		return c.serverError(err)
	}

	result := req.AuthResult
	if result == nil {
		result, err = c.services.AuthResults.Consume(ctx, key)
		if errors.Is(err, authfw.ErrResultNotFound) {
			return c.clientErrorRedirect(entry.Params, oauthmodel.ErrorAccessDenied,
				"authentication outcome unavailable", "")
		}
		if err != nil {
			return c.serverError(err)
		}
	}

	validation, err := c.services.Clients.Validate(ctx, entry.Params.ClientID)
	if err != nil {
		return c.serverError(err)
	}
	if !validation.Valid || !validation.Active {
		return errorBody(http.StatusUnauthorized, oauthmodel.ErrorUnauthorizedClient,
			"client application is no longer authorized")
	}

	if !result.Authenticated || result.Subject == nil {
		errorCode := result.ErrorCode
		if errorCode == "" {
			errorCode = oauthmodel.ErrorAccessDenied
		}
		description := result.ErrorMessage
		if description == "" {
			description = "authentication failed"
		}
		return c.clientErrorRedirect(entry.Params, errorCode, description, result.ErrorURI)
	}

	decision, err := c.services.Consent.Evaluate(ctx, result.Subject.Subject,
		entry.Params.ApplicationName, entry.Params.Scopes)
	if err != nil {
		return c.serverError(err)
	}
	if decision == consent.DecisionSkip {
		return c.successResponse(entry.Params)
	}

	entry.LoggedInUser = result.Subject
	consentKey, err := sessiondata.NewKey()
	if err != nil {
		return c.serverError(err)
	}
	if err := c.services.SessionData.Store(ctx, consentKey, entry); err != nil {
		return c.serverError(err)
	}
	return redirect(c.consentPageRedirectURL(consentKey, entry))
}

// handleConsentResult resolves the consent page postback. The consent key is
// single use: whatever the decision, the entry is gone afterwards and a
// replayed postback maps to access_denied.
func (c *Controller) handleConsentResult(ctx context.Context, req *Request) *Response {
	consentKey := req.Param(ParamConsentKey)
	if consentKey == "" {
		return errorBody(http.StatusBadRequest, oauthmodel.ErrorInvalidRequest, "sessionDataKeyConsent is required")
	}

	entry, err := c.services.SessionData.Consume(ctx, consentKey)
	if errors.Is(err, sessiondata.ErrEntryNotFound) {
		return c.errorPageRedirect(oauthmodel.ErrorAccessDenied,
			"consent session expired or already completed", http.StatusForbidden)
	}
	if err != nil {
		return c.serverError(err)
	}

	decision := req.Param(ParamConsent)
	switch {
	case strings.HasPrefix(decision, ConsentApprove):
		if entry.LoggedInUser != nil {
			err := c.services.Approvals.Approve(ctx, entry.LoggedInUser.Subject,
				entry.Params.ApplicationName, entry.Params.Scopes)
			if err != nil {
				return c.serverError(err)
			}
		}
		return c.successResponse(entry.Params)

	case decision == "" || strings.HasPrefix(decision, ConsentDeny):
		return c.clientErrorRedirect(entry.Params, oauthmodel.ErrorAccessDenied,
			"the user denied the authorization request", "")

	default:
		return c.clientErrorRedirect(entry.Params, oauthmodel.ErrorInvalidRequest,
			"unrecognised consent decision", "")
	}
}

// successResponse issues an authorization code and delivers it to the
// client's redirect URI, honouring the form_post response mode.
func (c *Controller) successResponse(params *oauthmodel.OAuth2Parameters) *Response {
	code, err := sessiondata.NewKey()
	if err != nil {
		return c.serverError(err)
	}

	values := url.Values{}
	values.Set("code", code)
	if params.State != "" {
		values.Set(ParamState, params.State)
	}
	target, err := appendQuery(params.RedirectURI, values)
	if err != nil {
		return c.serverError(err)
	}

	if params.ResponseMode == oauthmodel.FormPostResponseMode {
		return redirectEnvelope(target)
	}
	return redirect(target)
}

// clientErrorRedirect delivers an error to the client's validated redirect
// URI. Errors are always delivered as direct redirects, regardless of the
// requested response mode.
func (c *Controller) clientErrorRedirect(params *oauthmodel.OAuth2Parameters, errorCode, description, errorURI string) *Response {
	values := url.Values{}
	values.Set("error", errorCode)
	if description != "" {
		values.Set("error_description", description)
	}
	if errorURI != "" {
		values.Set("error_uri", errorURI)
	}
	if params.State != "" {
		values.Set(ParamState, params.State)
	}

	target, err := appendQuery(params.RedirectURI, values)
	if err != nil {
		return c.serverError(err)
	}
	return redirect(target)
}

// errorPageRedirect delivers an error for flows with no trustworthy client
// redirect target: a redirect to the deployment's error page when one is
// configured, otherwise a direct JSON body with fallbackStatus.
func (c *Controller) errorPageRedirect(errorCode, description string, fallbackStatus int) *Response {
	if c.errorPageURL == "" {
		return errorBody(fallbackStatus, errorCode, description)
	}

	values := url.Values{}
	values.Set("oauthErrorCode", errorCode)
	values.Set("oauthErrorMsg", description)
	target, err := appendQuery(c.errorPageURL, values)
	if err != nil {
		return errorBody(fallbackStatus, errorCode, description)
	}
	return redirect(target)
}

// consentPageRedirectURL builds the consent page URL for the given pending
// entry.
func (c *Controller) consentPageRedirectURL(consentKey string, entry *sessiondata.Entry) string {
	values := url.Values{}
	values.Set(ParamConsentKey, consentKey)
	values.Set("application", entry.Params.ApplicationName)
	values.Set(ParamScope, strings.Join(entry.Params.Scopes, " "))
	if entry.LoggedInUser != nil {
		values.Set("loggedInUser", entry.LoggedInUser.Subject)
	}

	target, err := appendQuery(c.consentPageURL, values)
	if err != nil {
		// Startup configuration problem, not a request problem.
		log.Error().Err(err).Msg("consent page URL is not parseable")
		return c.consentPageURL
	}
	return target
}

func (c *Controller) serverError(err error) *Response {
	log.Error().Err(err).Msg("authorization flow failed")
	return errorBody(http.StatusInternalServerError, oauthmodel.ErrorServerError,
		"internal error processing the authorization request")
}

// sessionDataKey returns the flow's session data key, preferring the
// continuation attribute over the request parameter.
func (c *Controller) sessionDataKey(req *Request) string {
	if req.SessionDataKey != "" {
		return req.SessionDataKey
	}
	return req.Param(ParamSessionDataKey)
}

func registeredRedirectURI(registered []string, redirectURI string) bool {
	if redirectURI == "" {
		return false
	}
	for _, uri := range registered {
		if uri == redirectURI {
			return true
		}
	}
	return false
}
