package clients_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-id/go-authz-endpoint/clients"
)

const (
	testClientID    = "test-client-1"
	testAppName     = "Test Application"
	testRedirectURI = "http://localhost:3000/callback"
)

func setupService(t *testing.T) (*clients.ValidationService, clients.Repo) {
	t.Helper()

	repo := clients.NewInMemoryRepo()
	service, err := clients.NewValidationService(repo)
	require.NoError(t, err)
	return service, repo
}

func storeClient(t *testing.T, repo clients.Repo, status clients.Status) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &clients.Client{
		ID:              testClientID,
		ApplicationName: testAppName,
		Status:          status,
		RedirectURIs:    []string{testRedirectURI},
	}))
}

func TestValidateActiveClient(t *testing.T) {
	service, repo := setupService(t)
	storeClient(t, repo, clients.StatusActive)

	result, err := service.Validate(context.Background(), testClientID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.True(t, result.Active)
	require.Equal(t, testAppName, result.ApplicationName)
	require.Equal(t, []string{testRedirectURI}, result.RedirectURIs)
}

func TestValidateInactiveClient(t *testing.T) {
	service, repo := setupService(t)
	storeClient(t, repo, clients.StatusInactive)

	result, err := service.Validate(context.Background(), testClientID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.False(t, result.Active)
}

func TestValidateUnknownClient(t *testing.T) {
	service, _ := setupService(t)

	result, err := service.Validate(context.Background(), "no-such-client")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.False(t, result.Active)
}

func TestValidateEmptyClientID(t *testing.T) {
	service, _ := setupService(t)

	result, err := service.Validate(context.Background(), "")
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestClientSecret(t *testing.T) {
	client := &clients.Client{ID: testClientID}
	require.NoError(t, client.SetSecret("test-secret-1"))
	require.NotEqual(t, "test-secret-1", client.SecretHash)

	require.True(t, client.CheckSecret("test-secret-1"))
	require.False(t, client.CheckSecret("wrong-secret"))
}

func TestHasRedirectURIExactMatchOnly(t *testing.T) {
	client := &clients.Client{RedirectURIs: []string{testRedirectURI}}

	require.True(t, client.HasRedirectURI(testRedirectURI))
	require.False(t, client.HasRedirectURI(testRedirectURI+"/extra"))
	require.False(t, client.HasRedirectURI("http://localhost:3000"))
	require.False(t, client.HasRedirectURI(""))
}

func TestRepoGetReturnsCopy(t *testing.T) {
	_, repo := setupService(t)
	storeClient(t, repo, clients.StatusActive)

	first, err := repo.Get(context.Background(), testClientID)
	require.NoError(t, err)
	first.Status = clients.StatusInactive

	second, err := repo.Get(context.Background(), testClientID)
	require.NoError(t, err)
	require.Equal(t, clients.StatusActive, second.Status)
}

func TestRepoDelete(t *testing.T) {
	_, repo := setupService(t)
	storeClient(t, repo, clients.StatusActive)

	require.NoError(t, repo.Delete(context.Background(), testClientID))

	_, err := repo.Get(context.Background(), testClientID)
	require.ErrorIs(t, err, clients.ErrClientNotFound)
}
