// Package scopemeta resolves per-scope metadata, in particular whether a
// scope needs an explicit consent decision from the user. Two
// implementations exist — a legacy static list and an API-resource-backed
// registry — and configuration selects one at startup.
package scopemeta

import (
	"context"

	"github.com/halcyon-id/go-authz-endpoint/oauthmodel"
)

// Mode selects which Service implementation is constructed at startup.
type Mode string

const (
	ModeLegacy      Mode = "legacy"
	ModeAPIResource Mode = "api_resource"
)

// Service answers consent-relevant questions about scopes.
type Service interface {
	// RequiresConsent reports whether the scope needs an explicit user
	// consent decision. The openid scope always requires consent: on its
	// own it is never sufficient to bypass the consent page.
	RequiresConsent(ctx context.Context, scope string) (bool, error)
}

// LegacyService treats a fixed, configuration-supplied list of scopes as
// consent-exempt and everything else as consent-requiring.
type LegacyService struct {
	exempt map[string]struct{}
}

// NewLegacyService creates the static-list strategy.
func NewLegacyService(consentExemptScopes []string) *LegacyService {
	exempt := make(map[string]struct{}, len(consentExemptScopes))
	for _, s := range consentExemptScopes {
		if s == oauthmodel.OpenIDScope {
			continue // openid can never be exempted, even by misconfiguration
		}
		exempt[s] = struct{}{}
	}
	return &LegacyService{exempt: exempt}
}

// RequiresConsent implements Service.
func (s *LegacyService) RequiresConsent(_ context.Context, scope string) (bool, error) {
	if scope == oauthmodel.OpenIDScope {
		return true, nil
	}
	_, exempt := s.exempt[scope]
	return !exempt, nil
}
