package jobs

import (
	"context"
	"fmt"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/providers"
)

// GuildFetcher loads a guild with its approximate counts.
type GuildFetcher interface {
	GetGuild(ctx context.Context, guildID string) (*providers.DiscordGuild, error)
}

// MemberCountJob keeps the member count of the home guild fresh in the cache
// so the bot can rename its counter channel without calling Discord itself.
type MemberCountJob struct {
	guilds   GuildFetcher
	cache    common.CacheInterface
	metrics  *metrics.MetricsRegistry
	guildID  string
	cacheTTL time.Duration
}

func NewMemberCountJob(guilds GuildFetcher, cache common.CacheInterface, m *metrics.MetricsRegistry, guildID string, interval time.Duration) *MemberCountJob {
	return &MemberCountJob{
		guilds:   guilds,
		cache:    cache,
		metrics:  m,
		guildID:  guildID,
		cacheTTL: 2 * interval,
	}
}

// Run refreshes the configured guild.
func (j *MemberCountJob) Run(ctx context.Context) error {
	if j.guildID == "" {
		return nil
	}
	start := time.Now()
	defer j.metrics.ObserveJob("member_count", start)

	_, err := j.Refresh(ctx, j.guildID)
	return err
}

// Refresh fetches the count from Discord and stores it.
func (j *MemberCountJob) Refresh(ctx context.Context, guildID string) (*dtos.MemberCountResponse, error) {
	guild, err := j.guilds.GetGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
	}

	count := &dtos.MemberCountResponse{
		GuildID:     guildID,
		MemberCount: guild.ApproximateMemberCount,
		Online:      guild.ApproximatePresenceCount,
		UpdatedAt:   time.Now().UTC(),
	}
	j.cache.Set(cacheKey(guildID), count, j.cacheTTL)
	j.metrics.SetGuildMembers(guildID, count.MemberCount)

	logging.Debug("Member count refreshed", "guild_id", guildID, "member_count", count.MemberCount)
	return count, nil
}

// Count serves the cached value and falls back to a live fetch.
func (j *MemberCountJob) Count(ctx context.Context, guildID string) (*dtos.MemberCountResponse, error) {
	var cached dtos.MemberCountResponse
	if j.cache.GetInto(cacheKey(guildID), &cached) {
		j.metrics.CacheHit(string(constants.CachePrefixMemberCount))
		return &cached, nil
	}
	j.metrics.CacheMiss(string(constants.CachePrefixMemberCount))
	return j.Refresh(ctx, guildID)
}

func (j *MemberCountJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := j.Run(ctx); err != nil {
		logging.Warn("Member count initial run failed", "error", err.Error())
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				logging.Warn("Member count scheduled run failed", "error", err.Error())
			}
		case <-ctx.Done():
			logging.Info("Member count job stopped")
			return
		}
	}
}

func cacheKey(guildID string) string {
	return string(constants.CachePrefixMemberCount) + guildID
}
