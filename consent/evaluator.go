package consent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/halcyon-id/go-authz-endpoint/scopemeta"
)

// Decision is the outcome of evaluating whether consent is needed.
type Decision int

const (
	// DecisionSkip means the flow proceeds directly to response building
	// with an implicit approve.
	DecisionSkip Decision = iota

	// DecisionRequire means the user must be sent to the consent page.
	DecisionRequire
)

// Evaluator decides whether an authenticated request still needs an explicit
// consent decision.
type Evaluator struct {
	approvals ApprovalStore
	meta      scopemeta.Service
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(approvals ApprovalStore, meta scopemeta.Service) (*Evaluator, error) {
	if approvals == nil {
		return nil, errors.New("[NewEvaluator] approval store is required")
	}
	if meta == nil {
		return nil, errors.New("[NewEvaluator] scope metadata service is required")
	}
	return &Evaluator{approvals: approvals, meta: meta}, nil
}

// Evaluate returns DecisionSkip when every requested scope was previously
// approved for (subject, application), or when the request contains only
// scopes whose metadata marks them as not requiring explicit consent.
// Everything else requires consent.
func (e *Evaluator) Evaluate(ctx context.Context, subject, application string, scopes []string) (Decision, error) {
	approved, err := e.approvals.HasApproved(ctx, subject, application, scopes)
	if err != nil {
		return DecisionRequire, errors.Wrap(err, "[Evaluator.Evaluate] approval lookup")
	}
	if approved {
		return DecisionSkip, nil
	}

	for _, scope := range scopes {
		required, err := e.meta.RequiresConsent(ctx, scope)
		if err != nil {
			return DecisionRequire, errors.Wrap(err, "[Evaluator.Evaluate] scope metadata lookup")
		}
		if required {
			return DecisionRequire, nil
		}
	}
	return DecisionSkip, nil
}
