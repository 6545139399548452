package definition

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// setupRedisRepository starts an in-process Redis and returns a repository on
// top of it.
func setupRedisRepository(t *testing.T) *RedisRepository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewRedisRepository(client)
}

// TestRedisRepositoryRoundtrip exercises upsert, list, get and delete.
func TestRedisRepositoryRoundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupRedisRepository(t)

	definitions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, definitions)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, sampleDefinition("a")))
	require.NoError(t, repo.Upsert(ctx, sampleDefinition("b")))

	definitions, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, definitions, 2)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
	require.Equal(t, 80, got.Volume)

	updated := sampleDefinition("a")
	updated.Volume = 55
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 55, got.Volume)

	require.NoError(t, repo.Delete(ctx, "a"))
	require.ErrorIs(t, repo.Delete(ctx, "a"), ErrNotFound)
}
