package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
	"github.com/redis/go-redis/v9"
)

const (
	replayKeyPrefix  = "webhook:replay:"
	defaultReplayTTL = 24 * time.Hour
)

// ReplayGuard shares processed webhook keys between replicas using SETNX.
type ReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ payment.ReplayGuard = (*ReplayGuard)(nil)

func NewReplayGuard(client *redis.Client, ttl time.Duration) *ReplayGuard {
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	return &ReplayGuard{client: client, ttl: ttl}
}

func (g *ReplayGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, replayKeyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("replay guard: claim: %w", err)
	}
	return ok, nil
}

func (g *ReplayGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, replayKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("replay guard: release: %w", err)
	}
	return nil
}

// Options configures NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient dials Redis and verifies the connection with PING.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
