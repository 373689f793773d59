package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/clients"
	"github.com/halcyon-id/go-authz-endpoint/consent"
	"github.com/halcyon-id/go-authz-endpoint/flow"
	"github.com/halcyon-id/go-authz-endpoint/internal/config"
	"github.com/halcyon-id/go-authz-endpoint/scopemeta"
	"github.com/halcyon-id/go-authz-endpoint/server"
	"github.com/halcyon-id/go-authz-endpoint/sessiondata"
)

const (
	testClientID    = "test-client-1"
	testAppName     = "Test Application"
	testRedirectURI = "http://localhost:3000/callback"
	testState       = "random-state-value"
	testSubject     = "user-1"
	exemptScope     = "internal_read"
)

type testFixture struct {
	config      config.Config
	sessionData *sessiondata.InMemoryRepo
	authResults *authfw.InMemoryResultRepo
	server      *server.Server
}

// fakeCallbackAuthenticator stands in for the federated authenticator: it
// records an authenticated result under the state key without talking to an
// upstream provider.
type fakeCallbackAuthenticator struct {
	results authfw.ResultRepo
}

func (f *fakeCallbackAuthenticator) HandleCallback(ctx context.Context, state, code, upstreamError, upstreamErrorDesc string) error {
	if upstreamError != "" {
		return f.results.Store(ctx, state, &authfw.Result{
			Authenticated: false,
			ErrorCode:     upstreamError,
			ErrorMessage:  upstreamErrorDesc,
		})
	}
	return f.results.Store(ctx, state, &authfw.Result{
		Authenticated: true,
		Subject:       &authfw.User{Subject: testSubject},
	})
}

func setupTestFixture(t *testing.T, withCallback bool) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")

	cfg := config.New()
	sessionData := sessiondata.NewInMemoryRepo(10 * time.Minute)
	authResults := authfw.NewInMemoryResultRepo(10 * time.Minute)
	approvals := consent.NewInMemoryApprovalStore()

	clientRepo := clients.NewInMemoryRepo()
	require.NoError(t, clientRepo.Upsert(context.Background(), &clients.Client{
		ID:              testClientID,
		ApplicationName: testAppName,
		Status:          clients.StatusActive,
		RedirectURIs:    []string{testRedirectURI},
	}))
	validator, err := clients.NewValidationService(clientRepo)
	require.NoError(t, err)

	evaluator, err := consent.NewEvaluator(approvals, scopemeta.NewLegacyService([]string{exemptScope}))
	require.NoError(t, err)

	controller, err := flow.NewController(flow.Services{
		SessionData:   sessionData,
		AuthResults:   authResults,
		Clients:       validator,
		Approvals:     approvals,
		Consent:       evaluator,
		Authenticator: authfw.NewCommonAuthAuthenticator(cfg.GetLoginPageURL()),
	}, cfg.GetConsentPageURL(), flow.WithErrorPageURL(cfg.GetErrorPageURL()))
	require.NoError(t, err)

	var callback server.CallbackAuthenticator
	if withCallback {
		callback = &fakeCallbackAuthenticator{results: authResults}
	}

	srv, err := server.New(cfg, controller, callback)
	require.NoError(t, err)

	return &testFixture{
		config:      cfg,
		sessionData: sessionData,
		authResults: authResults,
		server:      srv,
	}
}

func (f *testFixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (f *testFixture) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func authorizeTarget(params url.Values) string {
	return server.RouteOAuth2Authorize + "?" + params.Encode()
}

func defaultParams(scope string) url.Values {
	return url.Values{
		"client_id":     {testClientID},
		"redirect_uri":  {testRedirectURI},
		"response_type": {"code"},
		"scope":         {scope},
		"state":         {testState},
	}
}

func locationQuery(t *testing.T, rec *httptest.ResponseRecorder) url.Values {
	t.Helper()
	location := rec.Header().Get("Location")
	require.NotEmpty(t, location)
	u, err := url.Parse(location)
	require.NoError(t, err)
	return u.Query()
}

// startFlow issues a fresh authorization request over HTTP and returns the
// session data key from the login redirect.
func (f *testFixture) startFlow(t *testing.T, scope string) string {
	t.Helper()

	rec := f.get(t, authorizeTarget(defaultParams(scope)))
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), f.config.GetLoginPageURL()))

	key := locationQuery(t, rec).Get("sessionDataKey")
	require.NotEmpty(t, key)
	return key
}

// completeLogin simulates the login application redirecting back with
// SUCCESS_COMPLETED after storing the authentication outcome.
func (f *testFixture) completeLogin(t *testing.T, key string) *httptest.ResponseRecorder {
	t.Helper()

	require.NoError(t, f.authResults.Store(context.Background(), key, &authfw.Result{
		Authenticated: true,
		Subject:       &authfw.User{Subject: testSubject},
	}))

	return f.get(t, authorizeTarget(url.Values{
		"authenticatorFlowStatus": {"SUCCESS_COMPLETED"},
		"sessionDataKey":          {key},
	}))
}

func TestAuthorizeRedirectsToLogin(t *testing.T) {
	f := setupTestFixture(t, false)

	rec := f.get(t, authorizeTarget(defaultParams("openid")))
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), f.config.GetLoginPageURL()))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthorizeMissingClientID(t *testing.T) {
	f := setupTestFixture(t, false)

	params := defaultParams("openid")
	params.Del("client_id")

	rec := f.get(t, authorizeTarget(params))
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), f.config.GetErrorPageURL()))
	require.Equal(t, "invalid_request", locationQuery(t, rec).Get("oauthErrorCode"))
}

func TestAuthorizePostDuplicateParameter(t *testing.T) {
	f := setupTestFixture(t, false)

	// The same parameter in the query string and the form body counts as a
	// duplicate.
	rec := f.postForm(t, server.RouteOAuth2Authorize+"?client_id="+testClientID,
		url.Values{"client_id": {testClientID}})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_request", body["error"])
}

func TestFullFlowThroughConsent(t *testing.T) {
	f := setupTestFixture(t, false)

	key := f.startFlow(t, "openid")

	afterLogin := f.completeLogin(t, key)
	require.Equal(t, http.StatusFound, afterLogin.Code)
	require.True(t, strings.HasPrefix(afterLogin.Header().Get("Location"), f.config.GetConsentPageURL()))

	consentKey := locationQuery(t, afterLogin).Get("sessionDataKeyConsent")
	require.NotEmpty(t, consentKey)

	final := f.postForm(t, server.RouteOAuth2Authorize, url.Values{
		"sessionDataKeyConsent": {consentKey},
		"consent":               {"approve"},
	})
	require.Equal(t, http.StatusFound, final.Code)
	require.True(t, strings.HasPrefix(final.Header().Get("Location"), testRedirectURI))

	q := locationQuery(t, final)
	require.NotEmpty(t, q.Get("code"))
	require.Equal(t, testState, q.Get("state"))
}

func TestFullFlowSkipsConsentForExemptScope(t *testing.T) {
	f := setupTestFixture(t, false)

	key := f.startFlow(t, exemptScope)
	final := f.completeLogin(t, key)

	require.Equal(t, http.StatusFound, final.Code)
	require.True(t, strings.HasPrefix(final.Header().Get("Location"), testRedirectURI))
	require.NotEmpty(t, locationQuery(t, final).Get("code"))
}

func TestFormPostSuccessEnvelope(t *testing.T) {
	f := setupTestFixture(t, false)

	params := defaultParams(exemptScope)
	params.Set("response_mode", "form_post")

	rec := f.get(t, authorizeTarget(params))
	key := locationQuery(t, rec).Get("sessionDataKey")
	require.NotEmpty(t, key)

	final := f.completeLogin(t, key)
	require.Equal(t, http.StatusOK, final.Code)
	require.Contains(t, final.Header().Get("Content-Type"), "application/json")

	var envelope struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(final.Body.Bytes(), &envelope))
	require.True(t, strings.HasPrefix(envelope.URL, testRedirectURI))
}

func TestCallbackCompletesFederatedLogin(t *testing.T) {
	f := setupTestFixture(t, true)

	key := f.startFlow(t, exemptScope)

	rec := f.get(t, server.RouteCallback+"?state="+url.QueryEscape(key)+"&code=upstream-code")
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), testRedirectURI))
	require.NotEmpty(t, locationQuery(t, rec).Get("code"))
}

func TestCallbackWithUpstreamError(t *testing.T) {
	f := setupTestFixture(t, true)

	key := f.startFlow(t, exemptScope)

	rec := f.get(t, server.RouteCallback+"?state="+url.QueryEscape(key)+
		"&error=access_denied&error_description=user+cancelled")
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), testRedirectURI))
	require.Equal(t, "access_denied", locationQuery(t, rec).Get("error"))
}

func TestCallbackDisabledWithoutFederatedAuthenticator(t *testing.T) {
	f := setupTestFixture(t, false)

	rec := f.get(t, server.RouteCallback+"?state=x&code=y")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := setupTestFixture(t, false)

	rec := f.get(t, server.RouteHealthz)
	require.Equal(t, http.StatusOK, rec.Code)

	body := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestMetricsExposed(t *testing.T) {
	f := setupTestFixture(t, false)

	f.startFlow(t, "openid")

	rec := f.get(t, server.RouteMetrics)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "authz_endpoint_responses_total")
}
