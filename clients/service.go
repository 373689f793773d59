package clients

import (
	"context"

	"github.com/pkg/errors"
)

// ValidationResult is the outcome of validating a client_id against the
// client store.
type ValidationResult struct {
	Valid           bool
	Active          bool
	ApplicationName string
	RedirectURIs    []string
}

// ValidationService resolves and validates client applications for the
// authorization flow. It deliberately exposes only what the flow needs;
// secret verification belongs to the token endpoint, not here.
type ValidationService struct {
	repo Repo
}

// NewValidationService creates a ValidationService.
func NewValidationService(repo Repo) (*ValidationService, error) {
	if repo == nil {
		return nil, errors.New("[NewValidationService] client repo is required")
	}
	return &ValidationService{repo: repo}, nil
}

// Validate looks up clientID. An unknown client yields Valid=false with no
// error; store failures are returned as errors.
func (s *ValidationService) Validate(ctx context.Context, clientID string) (*ValidationResult, error) {
	if clientID == "" {
		return &ValidationResult{}, nil
	}

	client, err := s.repo.Get(ctx, clientID)
	if errors.Is(err, ErrClientNotFound) {
		return &ValidationResult{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[ValidationService.Validate] client lookup")
	}

	return &ValidationResult{
		Valid:           true,
		Active:          client.IsActive(),
		ApplicationName: client.ApplicationName,
		RedirectURIs:    client.RedirectURIs,
	}, nil
}
