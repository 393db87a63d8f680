package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDenylist(t *testing.T) (DenylistRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewDenylistRepository(rdb), mr
}

func TestDenylist_AddAndContains(t *testing.T) {
	repo, _ := setupDenylist(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "some-jti", 24*time.Hour))

	found, err := repo.Contains(ctx, "some-jti")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Contains(ctx, "other-jti")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDenylist_EntryExpires(t *testing.T) {
	repo, mr := setupDenylist(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "some-jti", 24*time.Hour))

	mr.FastForward(25 * time.Hour)

	found, err := repo.Contains(ctx, "some-jti")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDenylist_AddIsIdempotent(t *testing.T) {
	repo, _ := setupDenylist(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "some-jti", 24*time.Hour))
	require.NoError(t, repo.Add(ctx, "some-jti", 24*time.Hour))

	found, err := repo.Contains(ctx, "some-jti")
	require.NoError(t, err)
	assert.True(t, found)
}
