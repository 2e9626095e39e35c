package auth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claims is what a bearer token resolves to once verified.
type Claims struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	IsAnonymous bool   `json:"isAnonymous"`
	Provider    string `json:"provider"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// ClaimCache caches successful verifications by token string with a
// short TTL
type ClaimCache interface {
	Get(ctx context.Context, token string) (*Claims, bool)
	Set(ctx context.Context, token string, c *Claims, ttl time.Duration)
}

// memClaimCache is the in-process fallback cache used when no redis
// backend is configured.
type memClaimCache struct {
	mu sync.Mutex
	m  map[string]memEntry
}

type memEntry struct {
	claims  Claims
	expires time.Time
}

func NewMemClaimCache() ClaimCache {
	return &memClaimCache{m: make(map[string]memEntry)}
}

func (c *memClaimCache) Get(_ context.Context, token string) (*Claims, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.m, token)
		return nil, false
	}
	claims := e.claims
	return &claims, true
}

func (c *memClaimCache) Set(_ context.Context, token string, claims *Claims, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[token] = memEntry{claims: *claims, expires: time.Now().Add(ttl)}
}

// redisClaimCache backs the identity verifier's claim cache with a
// redis Ring client, sharding across configured addresses via
// rendezvous hashing.
type redisClaimCache struct {
	ring *redis.Ring
}

// NewRedisClaimCache builds a Ring client across addrs, keyed "shard-a",
// "shard-b", ... in order. Every address past the 26th is keyed
// "shard-x", so only the last of those ends up in the ring.
func NewRedisClaimCache(addrs []string) ClaimCache {
	shards := make(map[string]string, len(addrs))
	for i, addr := range addrs {
		shards[shardName(i)] = addr
	}
	ring := redis.NewRing(&redis.RingOptions{Addrs: shards})
	return &redisClaimCache{ring: ring}
}

func shardName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return "shard-" + string(letters[i])
	}
	return "shard-x"
}

func (c *redisClaimCache) Get(ctx context.Context, token string) (*Claims, bool) {
	raw, err := c.ring.Get(ctx, "claim:"+token).Bytes()
	if err != nil {
		return nil, false
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

func (c *redisClaimCache) Set(ctx context.Context, token string, claims *Claims, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return
	}
	c.ring.Set(ctx, "claim:"+token, raw, ttl)
}
