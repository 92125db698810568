package rank

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/server-monitor/internal/config"
	"github.com/server-monitor/internal/domain"
)

// redisSource reads ranks from a Redis instance, keyed by legacy identity
// under a configurable prefix. Selector value 3 maps here.
type redisSource struct {
	client *redis.Client
	prefix string
}

func newRedisSource(cfg *config.RedisConfig) *redisSource {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &redisSource{
		client: client,
		prefix: cfg.KeyPrefix,
	}
}

func (s *redisSource) lookup(ctx context.Context, steamID2 string) (int, error) {
	val, err := s.client.Get(ctx, s.prefix+steamID2).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrRankNotFound
		}
		return 0, fmt.Errorf("querying redis rank: %w", err)
	}

	rank, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing redis rank %q: %w", val, err)
	}
	return rank, nil
}
