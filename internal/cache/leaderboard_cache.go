// Package cache mirrors score totals into Redis so the leaderboard can be
// read over REST without touching live room state. The mirror is write-only
// from the game's point of view: room state is never loaded back from it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/model"
)

const writeTimeout = 2 * time.Second

// LeaderboardCache is the Redis ZSET view of per-room scores.
type LeaderboardCache interface {
	RecordScores(code string, entries []model.RankEntry)
	DropRoom(code string)
	GetTop(ctx context.Context, code string, limit int) ([]model.RankEntry, error)
}

type leaderboardCache struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewLeaderboardCache creates the leaderboard mirror.
func NewLeaderboardCache(client *redis.Client, log zerolog.Logger) LeaderboardCache {
	return &leaderboardCache{client: client, log: log}
}

func (c *leaderboardCache) key(code string) string {
	return fmt.Sprintf("room:%s:lb", code)
}

func (c *leaderboardCache) nameKey(code string) string {
	return fmt.Sprintf("room:%s:names", code)
}

// RecordScores replaces the room's leaderboard entries. Failures are logged
// and dropped: the mirror must never stall a scoring pass.
func (c *leaderboardCache) RecordScores(code string, entries []model.RankEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	members := make([]redis.Z, 0, len(entries))
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{Score: float64(e.Score), Member: e.PlayerID})
		names[e.PlayerID] = e.Name
	}
	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key(code), members...)
	pipe.HSet(ctx, c.nameKey(code), names)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Str("room", code).Msg("leaderboard mirror write failed")
	}
}

func (c *leaderboardCache) DropRoom(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(code), c.nameKey(code)).Err(); err != nil {
		c.log.Warn().Err(err).Str("room", code).Msg("leaderboard mirror delete failed")
	}
}

func (c *leaderboardCache) GetTop(ctx context.Context, code string, limit int) ([]model.RankEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(code), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	names, err := c.client.HGetAll(ctx, c.nameKey(code)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	entries := make([]model.RankEntry, len(results))
	for i, z := range results {
		id, _ := z.Member.(string)
		entries[i] = model.RankEntry{
			Rank:     i + 1,
			PlayerID: id,
			Name:     names[id],
			Score:    int(z.Score),
		}
	}
	return entries, nil
}
