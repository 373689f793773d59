package consent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-id/go-authz-endpoint/consent"
	"github.com/halcyon-id/go-authz-endpoint/scopemeta"
)

const (
	testSubject = "user-1"
	testAppName = "Test Application"
)

func setupEvaluator(t *testing.T, exemptScopes []string) (*consent.Evaluator, *consent.InMemoryApprovalStore) {
	t.Helper()

	approvals := consent.NewInMemoryApprovalStore()
	evaluator, err := consent.NewEvaluator(approvals, scopemeta.NewLegacyService(exemptScopes))
	require.NoError(t, err)
	return evaluator, approvals
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name           string
		exemptScopes   []string
		approvedScopes []string
		requestScopes  []string
		want           consent.Decision
	}{
		{
			name:          "openid always requires consent",
			requestScopes: []string{"openid"},
			want:          consent.DecisionRequire,
		},
		{
			name:          "unknown scope requires consent",
			requestScopes: []string{"photos:read"},
			want:          consent.DecisionRequire,
		},
		{
			name:          "exempt-only request skips consent",
			exemptScopes:  []string{"internal_read", "internal_write"},
			requestScopes: []string{"internal_read", "internal_write"},
			want:          consent.DecisionSkip,
		},
		{
			name:          "exempt plus openid still requires consent",
			exemptScopes:  []string{"internal_read"},
			requestScopes: []string{"internal_read", "openid"},
			want:          consent.DecisionRequire,
		},
		{
			name:           "previously approved scopes skip consent",
			approvedScopes: []string{"openid", "email"},
			requestScopes:  []string{"openid", "email"},
			want:           consent.DecisionSkip,
		},
		{
			name:           "approved subset skips consent",
			approvedScopes: []string{"openid", "email", "profile"},
			requestScopes:  []string{"openid"},
			want:           consent.DecisionSkip,
		},
		{
			name:           "new scope beyond approval requires consent",
			approvedScopes: []string{"openid"},
			requestScopes:  []string{"openid", "email"},
			want:           consent.DecisionRequire,
		},
		{
			name:          "empty scope set skips consent",
			requestScopes: nil,
			want:          consent.DecisionSkip,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evaluator, approvals := setupEvaluator(t, tc.exemptScopes)
			ctx := context.Background()

			if len(tc.approvedScopes) > 0 {
				require.NoError(t, approvals.Approve(ctx, testSubject, testAppName, tc.approvedScopes))
			}

			decision, err := evaluator.Evaluate(ctx, testSubject, testAppName, tc.requestScopes)
			require.NoError(t, err)
			require.Equal(t, tc.want, decision)
		})
	}
}

func TestApprovalsAreScopedToSubjectAndApplication(t *testing.T) {
	evaluator, approvals := setupEvaluator(t, nil)
	ctx := context.Background()

	require.NoError(t, approvals.Approve(ctx, testSubject, testAppName, []string{"openid"}))

	decision, err := evaluator.Evaluate(ctx, "someone-else", testAppName, []string{"openid"})
	require.NoError(t, err)
	require.Equal(t, consent.DecisionRequire, decision)

	decision, err = evaluator.Evaluate(ctx, testSubject, "Other Application", []string{"openid"})
	require.NoError(t, err)
	require.Equal(t, consent.DecisionRequire, decision)
}

func TestApproveAccumulates(t *testing.T) {
	approvals := consent.NewInMemoryApprovalStore()
	ctx := context.Background()

	require.NoError(t, approvals.Approve(ctx, testSubject, testAppName, []string{"openid"}))
	require.NoError(t, approvals.Approve(ctx, testSubject, testAppName, []string{"email"}))

	approved, err := approvals.HasApproved(ctx, testSubject, testAppName, []string{"openid", "email"})
	require.NoError(t, err)
	require.True(t, approved)
}

func TestApproveValidation(t *testing.T) {
	approvals := consent.NewInMemoryApprovalStore()
	ctx := context.Background()

	require.Error(t, approvals.Approve(ctx, "", testAppName, []string{"openid"}))
	require.Error(t, approvals.Approve(ctx, testSubject, "", []string{"openid"}))

	approved, err := approvals.HasApproved(ctx, "", testAppName, []string{"openid"})
	require.NoError(t, err)
	require.False(t, approved)
}
