package redis

import (
	"context"
	"time"

	"call-stt-pipeline/internal/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the narrow slice of Redis the queue store needs: two
// ordered lists (pending jobs, DLQ) and one set (processed dedup keys).
type RedisClient interface {
	Ping(ctx context.Context) error
	RPush(ctx context.Context, key, value string) error
	// LPop returns (value, true) or ("", false) when the list is empty.
	LPop(ctx context.Context, key string) (string, bool, error)
	// BLPop blocks up to timeout for a value; ("", false) on timeout.
	BLPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error)
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// LRem removes up to count occurrences of value and reports how many
	// were removed.
	LRem(ctx context.Context, key string, count int64, value string) (int64, error)
	SAdd(ctx context.Context, key, member string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SRem(ctx context.Context, key, member string) error
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) RPush(ctx context.Context, key, value string) error {
	return c.cli.RPush(ctx, key, value).Err()
}

func (c *redClient) LPop(ctx context.Context, key string) (string, bool, error) {
	v, err := c.cli.LPop(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *redClient) BLPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error) {
	kv, err := c.cli.BLPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// BLPop yields [key, value].
	if len(kv) != 2 {
		return "", false, nil
	}
	return kv[1], true, nil
}

func (c *redClient) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.cli.LRange(ctx, key, start, stop).Result()
}

func (c *redClient) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	return c.cli.LRem(ctx, key, count, value).Result()
}

func (c *redClient) SAdd(ctx context.Context, key, member string) error {
	return c.cli.SAdd(ctx, key, member).Err()
}

func (c *redClient) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return c.cli.SIsMember(ctx, key, member).Result()
}

func (c *redClient) SRem(ctx context.Context, key, member string) error {
	return c.cli.SRem(ctx, key, member).Err()
}

func (c *redClient) Close() error { return c.cli.Close() }
