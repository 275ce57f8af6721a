package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard records which trigger slots already fired.
type Guard interface {
	// TryAcquire takes key and reports true only for the first caller.
	TryAcquire(ctx context.Context, key string) (bool, error)
}

// MemoryGuard is a per-process Guard. Keys expire after ttl.
type MemoryGuard struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]time.Time
	now  func() time.Time
}

// NewMemoryGuard creates an in-memory guard.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		ttl:  ttl,
		keys: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.keys {
		if !now.Before(expires) {
			delete(g.keys, k)
		}
	}

	if _, taken := g.keys[key]; taken {
		return false, nil
	}
	g.keys[key] = now.Add(g.ttl)
	return true, nil
}

// RedisGuard shares trigger slots between workers through SET NX.
type RedisGuard struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisGuard creates a guard storing keys as prefix+key.
func NewRedisGuard(client redis.Cmdable, prefix string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, prefix: prefix, ttl: ttl}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire trigger key %q: %w", key, err)
	}
	return ok, nil
}

// OpenRedis parses url, connects and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
