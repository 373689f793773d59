package scopemeta

import (
	"context"
	"sync"

	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// ScopeMetadata describes one scope registered under an API resource.
type ScopeMetadata struct {
	Name            string
	DisplayName     string
	RequiresConsent bool
}

// APIResource groups the scopes exposed by one protected API.
type APIResource struct {
	Identifier string
	Scopes     []ScopeMetadata
}

// APIResourceService resolves scope metadata from a registry of API
// resources. Scopes not registered anywhere default to consent-requiring.
type APIResourceService struct {
	mu       sync.RWMutex
	byScope  map[string]ScopeMetadata
	resource map[string]APIResource
}

// NewAPIResourceService creates the registry-backed strategy, pre-populated
// with the given resources.
func NewAPIResourceService(resources []APIResource) *APIResourceService {
	s := &APIResourceService{
		byScope:  make(map[string]ScopeMetadata),
		resource: make(map[string]APIResource),
	}
	for _, r := range resources {
		s.register(r)
	}
	return s
}

// Register adds or replaces an API resource and its scopes.
func (s *APIResourceService) Register(resource APIResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.register(resource)
}

func (s *APIResourceService) register(resource APIResource) {
	s.resource[resource.Identifier] = resource
	for _, sc := range resource.Scopes {
		s.byScope[sc.Name] = sc
	}
}

// RequiresConsent implements Service.
func (s *APIResourceService) RequiresConsent(_ context.Context, scope string) (bool, error) {
	if scope == oauthmodel.OpenIDScope {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.byScope[scope]
	if !ok {
		return true, nil
	}
	return meta.RequiresConsent, nil
}
