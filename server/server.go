// Package server exposes the authorization flow over HTTP: the authorize
// endpoint, the federated login callback, and the operational routes.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/halcyon-id/go-authz-endpoint/flow"
	"github.com/halcyon-id/go-authz-endpoint/internal/config"
)

// CallbackAuthenticator finishes a login round trip on this server's
// /callback route. Only the federated OIDC authenticator implements it; the
// commonauth strategy sends the browser straight back to the authorize
// endpoint instead.
type CallbackAuthenticator interface {
	HandleCallback(ctx context.Context, state, code, upstreamError, upstreamErrorDesc string) error
}

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	flow     *flow.Controller
	callback CallbackAuthenticator
	metrics  *Metrics
}

// New creates the HTTP server around a flow controller. callback may be nil
// when the deployment authenticates through a commonauth login page.
func New(cfg config.Config, flowController *flow.Controller, callback CallbackAuthenticator) (*Server, error) {
	if flowController == nil {
		return nil, fmt.Errorf("[Server New] flow controller is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		flow:     flowController,
		callback: callback,
		metrics:  NewMetrics(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
