package server

func (s *Server) initRoutes() {
	// OAuth2 / OIDC authorize endpoint
	s.RegisterRouteHandler("GET "+RouteOAuth2Authorize, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuth2Authorize, ChainMiddleware(s.AuthorizePost(), s.APIMiddleware()...))

	// Federated login callback. Registered for POST too so an upstream
	// provider using the form_post response mode can reach it.
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}
