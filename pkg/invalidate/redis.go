package invalidate

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	redisconn "github.com/dmitrymomot/menukit/pkg/redis"
)

// Redis deletes the partner's storefront cache keys and publishes the partner
// id on a channel, in one pipeline.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	channel string
}

// NewRedis creates a Redis invalidator. Panics if client is nil.
func NewRedis(client redis.UniversalClient, cfg redisconn.Config) *Redis {
	if client == nil {
		panic("invalidate: redis client is required")
	}
	return &Redis{client: client, prefix: cfg.KeyPrefix, channel: cfg.Channel}
}

// Keys returns the cache keys dropped for a partner.
func (r *Redis) Keys(partnerID string) []string {
	return []string{
		r.prefix + "partner:" + partnerID,
		r.prefix + "menu:" + partnerID,
		r.prefix + "features:" + partnerID,
	}
}

func (r *Redis) Invalidate(ctx context.Context, partnerID string) error {
	if partnerID == "" {
		return ErrEmptyPartnerID
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.Keys(partnerID)...)
		if r.channel != "" {
			pipe.Publish(ctx, r.channel, partnerID)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrRedisInvalidation, err)
	}
	return nil
}
