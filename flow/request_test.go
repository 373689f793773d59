package flow_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-id/go-authz-endpoint/clients"
	"github.com/halcyon-id/go-authz-endpoint/flow"
)

func unsignedIDToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return signed
}

func loginRedirectQuery(t *testing.T, f *testFixture, params url.Values) url.Values {
	t.Helper()
	resp := f.controller.Authorize(context.Background(), &flow.Request{
		Method: http.MethodGet,
		Params: params,
	})
	require.Equal(t, http.StatusFound, resp.Status)
	return locationQuery(t, resp)
}

func TestLoginHintFromIDTokenHint(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestClient(t, clients.StatusActive)

	params := defaultParams("openid")
	params.Set("id_token_hint", unsignedIDToken(t, testSubject))

	q := loginRedirectQuery(t, f, params)
	require.Equal(t, testSubject, q.Get("login_hint"))
}

func TestExplicitLoginHintTakesPrecedence(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestClient(t, clients.StatusActive)

	params := defaultParams("openid")
	params.Set("login_hint", "explicit-user")
	params.Set("id_token_hint", unsignedIDToken(t, testSubject))

	q := loginRedirectQuery(t, f, params)
	require.Equal(t, "explicit-user", q.Get("login_hint"))
}

func TestMalformedIDTokenHintIsIgnored(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestClient(t, clients.StatusActive)

	params := defaultParams("openid")
	params.Set("id_token_hint", "not-a-jwt")

	q := loginRedirectQuery(t, f, params)
	require.Empty(t, q.Get("login_hint"))
}

func TestDuplicateParamDetection(t *testing.T) {
	req := &flow.Request{Params: url.Values{
		"scope": {"openid"},
		"state": {"a", "b"},
	}}
	name, ok := req.DuplicateParam()
	require.True(t, ok)
	require.Equal(t, "state", name)

	req = &flow.Request{Params: url.Values{"scope": {"openid"}}}
	_, ok = req.DuplicateParam()
	require.False(t, ok)
}
