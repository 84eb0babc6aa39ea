package providers

import (
	"context"
	"errors"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/verification"
	"sync/atomic"
	"testing"
)

// Mock ProfileClient counting upstream calls
type countingProfile struct {
	resolves atomic.Int32
	ranks    atomic.Int32
	descs    atomic.Int32
	rankErr  error
}

func (c *countingProfile) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	c.resolves.Add(1)
	if username == "Nobody" {
		return 0, false, nil
	}
	return 555, true, nil
}

func (c *countingProfile) FetchDescription(ctx context.Context, robloxID int64) (string, error) {
	c.descs.Add(1)
	return "desc", nil
}

func (c *countingProfile) FetchGroupRank(ctx context.Context, robloxID, groupID int64) (verification.GroupRank, error) {
	c.ranks.Add(1)
	if c.rankErr != nil {
		return verification.GroupRank{}, c.rankErr
	}
	return verification.GroupRank{IsMember: true, RankName: "Sergeant"}, nil
}

func TestCachedProfileClient_CachesPositiveLookups(t *testing.T) {
	upstream := &countingProfile{}
	client := NewCachedProfileClient(upstream, common.NewCacheService(60, 120), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, found, err := client.ResolveUsername(ctx, "Bob123")
		if err != nil || !found || id != 555 {
			t.Fatalf("Unexpected result (%d, %v, %v)", id, found, err)
		}
	}
	if n := upstream.resolves.Load(); n != 1 {
		t.Errorf("Expected 1 upstream resolve, got %d", n)
	}

	client.ResolveUsername(ctx, "Nobody")
	client.ResolveUsername(ctx, "Nobody")
	if n := upstream.resolves.Load(); n != 3 {
		t.Errorf("Expected misses not to be cached, got %d upstream calls", n)
	}
}

func TestCachedProfileClient_DescriptionNeverCached(t *testing.T) {
	upstream := &countingProfile{}
	client := NewCachedProfileClient(upstream, common.NewCacheService(60, 120), nil)

	client.FetchDescription(context.Background(), 555)
	client.FetchDescription(context.Background(), 555)
	if n := upstream.descs.Load(); n != 2 {
		t.Errorf("Expected 2 upstream description calls, got %d", n)
	}
}

func TestCachedProfileClient_RankErrorsNotCached(t *testing.T) {
	upstream := &countingProfile{rankErr: errors.New("boom")}
	client := NewCachedProfileClient(upstream, common.NewCacheService(60, 120), nil)
	ctx := context.Background()

	if _, err := client.FetchGroupRank(ctx, 555, 1); err == nil {
		t.Fatal("Expected error")
	}

	upstream.rankErr = nil
	rank, err := client.FetchGroupRank(ctx, 555, 1)
	if err != nil || rank.RankName != "Sergeant" {
		t.Fatalf("Unexpected result %+v, %v", rank, err)
	}
	client.FetchGroupRank(ctx, 555, 1)
	if n := upstream.ranks.Load(); n != 2 {
		t.Errorf("Expected 2 upstream rank calls, got %d", n)
	}

	client.Forget(555, 1)
	client.FetchGroupRank(ctx, 555, 1)
	if n := upstream.ranks.Load(); n != 3 {
		t.Errorf("Expected Forget to force a refetch, got %d calls", n)
	}
}
