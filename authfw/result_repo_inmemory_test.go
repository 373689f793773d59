package authfw_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
)

func authenticatedResult() *authfw.Result {
	return &authfw.Result{
		Authenticated: true,
		Subject: &authfw.User{
			Subject:    "user-1",
			Attributes: map[string]string{"email": "john.doe@example.com"},
		},
	}
}

func TestInMemoryResultRepoStoreAndConsume(t *testing.T) {
	repo := authfw.NewInMemoryResultRepo(time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "key-1", authenticatedResult()))

	got, err := repo.Consume(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, got.Authenticated)
	require.Equal(t, "user-1", got.Subject.Subject)
}

func TestInMemoryResultRepoConsumeIsSingleUse(t *testing.T) {
	repo := authfw.NewInMemoryResultRepo(time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "key-1", authenticatedResult()))

	_, err := repo.Consume(ctx, "key-1")
	require.NoError(t, err)

	_, err = repo.Consume(ctx, "key-1")
	require.ErrorIs(t, err, authfw.ErrResultNotFound)
}

func TestInMemoryResultRepoValidation(t *testing.T) {
	repo := authfw.NewInMemoryResultRepo(time.Minute)
	ctx := context.Background()

	require.Error(t, repo.Store(ctx, "", authenticatedResult()))
	require.Error(t, repo.Store(ctx, "key-1", nil))

	_, err := repo.Consume(ctx, "")
	require.ErrorIs(t, err, authfw.ErrResultNotFound)
}

func TestInMemoryResultRepoStoreCopiesResult(t *testing.T) {
	repo := authfw.NewInMemoryResultRepo(time.Minute)
	ctx := context.Background()

	result := authenticatedResult()
	require.NoError(t, repo.Store(ctx, "key-1", result))
	result.Authenticated = false

	got, err := repo.Consume(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, got.Authenticated)
}
