package providers

import (
	"context"
	"fmt"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/verification"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	usernameCacheTTL = 10 * time.Minute
	rankCacheTTL     = time.Minute
)

// CachedProfileClient caches username lookups and group ranks in front of a
// ProfileClient. Descriptions always go to the service so a freshly edited
// profile is seen immediately.
type CachedProfileClient struct {
	next    verification.ProfileClient
	cache   common.CacheInterface
	metrics *metrics.MetricsRegistry
	group   singleflight.Group
}

var _ verification.ProfileClient = (*CachedProfileClient)(nil)

func NewCachedProfileClient(next verification.ProfileClient, cache common.CacheInterface, m *metrics.MetricsRegistry) *CachedProfileClient {
	return &CachedProfileClient{next: next, cache: cache, metrics: m}
}

type cachedUserID struct {
	ID    int64 `json:"id"`
	Found bool  `json:"found"`
}

func (c *CachedProfileClient) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	key := string(constants.CachePrefixRobloxUserID) + strings.ToLower(username)

	var hit cachedUserID
	if c.cache.GetInto(key, &hit) {
		c.metrics.CacheHit(string(constants.CachePrefixRobloxUserID))
		return hit.ID, hit.Found, nil
	}
	c.metrics.CacheMiss(string(constants.CachePrefixRobloxUserID))

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		id, found, err := c.next.ResolveUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		entry := cachedUserID{ID: id, Found: found}
		// Only positive answers are cached; a user may register the name later.
		if found {
			c.cache.Set(key, entry, usernameCacheTTL)
		}
		return entry, nil
	})
	if err != nil {
		return 0, false, err
	}
	entry := v.(cachedUserID)
	return entry.ID, entry.Found, nil
}

func (c *CachedProfileClient) FetchDescription(ctx context.Context, robloxID int64) (string, error) {
	return c.next.FetchDescription(ctx, robloxID)
}

func (c *CachedProfileClient) FetchGroupRank(ctx context.Context, robloxID, groupID int64) (verification.GroupRank, error) {
	key := fmt.Sprintf("%s%d_%d", constants.CachePrefixGroupRank, robloxID, groupID)

	var hit verification.GroupRank
	if c.cache.GetInto(key, &hit) {
		c.metrics.CacheHit(string(constants.CachePrefixGroupRank))
		return hit, nil
	}
	c.metrics.CacheMiss(string(constants.CachePrefixGroupRank))

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		rank, err := c.next.FetchGroupRank(ctx, robloxID, groupID)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, rank, rankCacheTTL)
		return rank, nil
	})
	if err != nil {
		return verification.GroupRank{}, err
	}
	return v.(verification.GroupRank), nil
}

// Forget drops the cached rank so the next reconcile sees a promotion at once.
func (c *CachedProfileClient) Forget(robloxID, groupID int64) {
	c.cache.Delete(fmt.Sprintf("%s%d_%d", constants.CachePrefixGroupRank, robloxID, groupID))
}
