package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"simpleblog/api/internal/contributors"
)

const cachePrefix = "identity:"

// cachedIdentity is the JSON payload stored per actor reference.
type cachedIdentity struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	ProfileURL  string    `json:"profile_url"`
	CachedAt    time.Time `json:"cached_at"`
}

// CachedResolver puts a redis read-through cache in front of another
// resolver. Failed resolutions are not cached, and redis errors fall back to
// the wrapped resolver.
type CachedResolver struct {
	next   contributors.Resolver
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses redisURL and checks the server is reachable.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func NewCachedResolver(next contributors.Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedResolver{next: next, client: client, ttl: ttl}
}

func (c *CachedResolver) key(actor string) string {
	return cachePrefix + actor
}

func (c *CachedResolver) Resolve(ctx context.Context, actor string) (contributors.Identity, error) {
	if identity, ok := c.lookup(ctx, actor); ok {
		return identity, nil
	}

	identity, err := c.next.Resolve(ctx, actor)
	if err != nil {
		return contributors.Identity{}, err
	}

	payload, err := json.Marshal(cachedIdentity{
		Key:         identity.Key,
		DisplayName: identity.DisplayName,
		ProfileURL:  identity.ProfileURL,
		CachedAt:    time.Now(),
	})
	if err != nil {
		return identity, nil
	}
	if err := c.client.Set(ctx, c.key(actor), payload, c.ttl).Err(); err != nil {
		log.Printf("identity: cache store %q: %v", actor, err)
	}
	return identity, nil
}

func (c *CachedResolver) lookup(ctx context.Context, actor string) (contributors.Identity, bool) {
	raw, err := c.client.Get(ctx, c.key(actor)).Bytes()
	if errors.Is(err, redis.Nil) {
		return contributors.Identity{}, false
	}
	if err != nil {
		log.Printf("identity: cache lookup %q: %v", actor, err)
		return contributors.Identity{}, false
	}
	var cached cachedIdentity
	if err := json.Unmarshal(raw, &cached); err != nil {
		return contributors.Identity{}, false
	}
	return contributors.Identity{
		Key:         cached.Key,
		DisplayName: cached.DisplayName,
		ProfileURL:  cached.ProfileURL,
	}, true
}

// Evict drops the cached identities of the given references.
func (c *CachedResolver) Evict(ctx context.Context, actors ...string) error {
	if len(actors) == 0 {
		return nil
	}
	keys := make([]string, 0, len(actors))
	for _, actor := range actors {
		keys = append(keys, c.key(actor))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("evict identities: %w", err)
	}
	return nil
}

func (c *CachedResolver) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
