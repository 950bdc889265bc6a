package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposnap/reposnap/internal/cache"
	"github.com/reposnap/reposnap/internal/gitrepo"
	"github.com/reposnap/reposnap/internal/users"
)

// newCache starts a miniredis server and returns a cache backed by it,
// along with the server for clock manipulation.
func newCache(t *testing.T, ttl time.Duration) (*cache.RedisUserCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisUserCache(rdb, ttl), mr
}

func sampleInfo() *users.UserInfo {
	return &users.UserInfo{
		Account: gitrepo.Account{ID: 7, Login: "alice"},
		Gists:   []gitrepo.Gist{{ID: "g1"}},
		Repos:   []gitrepo.Repository{{Name: "widgets", FullName: "alice/widgets"}},
		IssuesByRepo: map[string][]gitrepo.Issue{
			"widgets": {{Number: 1, State: "open"}},
		},
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	c, _ := newCache(t, 0)

	require.NoError(t, c.Set(context.Background(), "alice", 2, sampleInfo()))

	got, err := c.Get(context.Background(), "alice", 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.Account.ID)
	assert.Len(t, got.IssuesByRepo["widgets"], 1)
}

func TestGet_Miss_ReturnsNil(t *testing.T) {
	c, _ := newCache(t, 0)

	got, err := c.Get(context.Background(), "nobody", gitrepo.Unlimited)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet_LimitIsPartOfTheKey(t *testing.T) {
	c, _ := newCache(t, 0)
	require.NoError(t, c.Set(context.Background(), "alice", 2, sampleInfo()))

	got, err := c.Get(context.Background(), "alice", 5)

	require.NoError(t, err)
	assert.Nil(t, got, "a different limit must not hit the limit=2 entry")
}

func TestTTL_ExpiresEntries(t *testing.T) {
	c, mr := newCache(t, time.Minute)
	require.NoError(t, c.Set(context.Background(), "alice", 2, sampleInfo()))

	mr.FastForward(2 * time.Minute)

	got, err := c.Get(context.Background(), "alice", 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}
