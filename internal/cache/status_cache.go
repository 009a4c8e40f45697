package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"resultpay/internal/model"
)

const statusKeyPrefix = "webhook_status:"

// Entry is the last webhook-observed status for one provider charge.
type Entry struct {
	ProviderChargeID string                `json:"provider_charge_id"`
	Status           model.CanonicalStatus `json:"status"`
	RawPayload       []byte                `json:"raw_payload,omitempty"`
	ObservedAt       time.Time             `json:"observed_at"`
}

// StatusCache is the webhook ingress fast path: synchronous verification
// requests racing a webhook read the freshest known status here without a
// provider round trip. Implementations must never block on a failing
// backing store; a broken cache behaves as a miss.
type StatusCache interface {
	Put(ctx context.Context, entry Entry) error
	Get(ctx context.Context, chargeID string) (*Entry, bool)
}

// redisStatusCache backs the cache with redis so multiple instances observe
// the same webhook state. Connectivity errors are swallowed: a broken redis
// behaves as a miss on reads and a no-op on writes.
type redisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatusCache creates a redis-backed status cache.
func NewRedisStatusCache(addr, password string, db int, ttl time.Duration) StatusCache {
	return &redisStatusCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

func (c *redisStatusCache) Put(ctx context.Context, entry Entry) error {
	if c.client == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	// fail safe: ignore redis errors
	_ = c.client.Set(ctx, statusKeyPrefix+entry.ProviderChargeID, payload, c.ttl).Err()
	return nil
}

func (c *redisStatusCache) Get(ctx context.Context, chargeID string) (*Entry, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, statusKeyPrefix+chargeID).Bytes()
	if err != nil {
		// redis.Nil and connectivity errors alike behave as a miss
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// memoryStatusCache is a bounded in-process cache for single-instance
// deployments and tests. Entries expire after the TTL; when the cache is
// full the oldest entry is evicted.
type memoryStatusCache struct {
	mu         sync.Mutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
}

// NewMemoryStatusCache creates an in-memory status cache.
func NewMemoryStatusCache(ttl time.Duration, maxEntries int) StatusCache {
	return &memoryStatusCache{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *memoryStatusCache) Put(ctx context.Context, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[entry.ProviderChargeID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[entry.ProviderChargeID] = entry
	return nil
}

func (c *memoryStatusCache) Get(ctx context.Context, chargeID string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[chargeID]
	if !ok {
		return nil, false
	}
	if time.Since(entry.ObservedAt) > c.ttl {
		delete(c.entries, chargeID)
		return nil, false
	}
	return &entry, true
}

func (c *memoryStatusCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.ObservedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.ObservedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
