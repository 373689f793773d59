package sessiondata_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-id/go-authz-endpoint/sessiondata"
)

func setupRedisRepo(t *testing.T) (*sessiondata.RedisRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo, err := sessiondata.NewRedisRepo(client, time.Minute)
	require.NoError(t, err)
	return repo, mr
}

func TestRedisRepoStoreAndConsume(t *testing.T) {
	repo, _ := setupRedisRepo(t)
	ctx := context.Background()

	entry := testEntry()
	require.NoError(t, repo.Store(ctx, "key-1", entry))

	got, err := repo.Consume(ctx, "key-1")
	require.NoError(t, err)
	require.Equal(t, entry.Params.ClientID, got.Params.ClientID)
	require.Equal(t, entry.Params.Scopes, got.Params.Scopes)

	_, err = repo.Consume(ctx, "key-1")
	require.ErrorIs(t, err, sessiondata.ErrEntryNotFound)
}

func TestRedisRepoExpiry(t *testing.T) {
	repo, mr := setupRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "key-1", testEntry()))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Consume(ctx, "key-1")
	require.ErrorIs(t, err, sessiondata.ErrEntryNotFound)
}

func TestRedisRepoDelete(t *testing.T) {
	repo, _ := setupRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, "key-1", testEntry()))
	require.NoError(t, repo.Delete(ctx, "key-1"))

	_, err := repo.Consume(ctx, "key-1")
	require.ErrorIs(t, err, sessiondata.ErrEntryNotFound)
}
