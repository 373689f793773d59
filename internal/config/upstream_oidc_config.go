package config

// UpstreamOIDCConfig configures the federated authenticator: the upstream
// OpenID Connect provider users are sent to when AUTHENTICATOR_MODE=oidc.
type UpstreamOIDCConfig interface {
	GetOIDCIssuerURL() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectURL() string
}

type UpstreamOIDC struct{}

var _ UpstreamOIDCConfig = UpstreamOIDC{}

func (UpstreamOIDC) GetOIDCIssuerURL() string {
	return GetEnv("OIDC_ISSUER_URL", "")
}

func (UpstreamOIDC) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (UpstreamOIDC) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

// GetOIDCRedirectURL is where the upstream provider sends the browser back;
// it must resolve to this server's callback route.
func (UpstreamOIDC) GetOIDCRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", EnvVars{}.GetBaseURL()+"/callback")
}
