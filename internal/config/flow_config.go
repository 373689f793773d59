package config

import (
	"strings"
	"time"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/scopemeta"
)

// FlowConfig configures the authorization flow: where the user agent is sent
// for login, consent and errors, how long cached flow state lives, and which
// strategy variants are active.
type FlowConfig interface {
	GetLoginPageURL() string
	GetConsentPageURL() string
	GetErrorPageURL() string
	GetSessionDataTTL() time.Duration
	GetAuthenticatorMode() authfw.Mode
	GetScopeMetadataMode() scopemeta.Mode
	GetConsentExemptScopes() []string
}

type Flow struct{}

var _ FlowConfig = Flow{}

func (Flow) GetLoginPageURL() string {
	return GetEnv("LOGIN_PAGE_URL", EnvVars{}.GetBaseURL()+"/login")
}

func (Flow) GetConsentPageURL() string {
	return GetEnv("CONSENT_PAGE_URL", EnvVars{}.GetBaseURL()+"/auth/consent")
}

func (Flow) GetErrorPageURL() string {
	return GetEnv("ERROR_PAGE_URL", EnvVars{}.GetBaseURL()+"/oauth2_error")
}

func (Flow) GetSessionDataTTL() time.Duration {
	ttl, err := time.ParseDuration(GetEnv("SESSION_DATA_TTL", "15m"))
	if err != nil {
		return 15 * time.Minute
	}
	return ttl
}

func (Flow) GetAuthenticatorMode() authfw.Mode {
	return authfw.Mode(GetEnv("AUTHENTICATOR_MODE", string(authfw.ModeCommonAuth)))
}

func (Flow) GetScopeMetadataMode() scopemeta.Mode {
	return scopemeta.Mode(GetEnv("SCOPE_METADATA_MODE", string(scopemeta.ModeLegacy)))
}

// GetConsentExemptScopes returns the comma-separated list of scopes the
// legacy scope metadata strategy treats as not requiring consent.
func (Flow) GetConsentExemptScopes() []string {
	raw := GetEnv("CONSENT_EXEMPT_SCOPES", "")
	if raw == "" {
		return nil
	}
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
