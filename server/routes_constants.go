package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 / OIDC Routes
	RouteOAuth2Authorize = "/oauth2/authorize"
	RouteCallback        = "/callback"

	// Operational Routes
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)
