// internal/app/store/contentcache/contentcache.go
package contentcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

// Key is the Redis key holding the cached settings document.
const Key = "pagecontent:settings"

// DefaultTTL bounds how stale another instance's cached copy can get.
const DefaultTTL = 5 * time.Minute

// Cache keeps a JSON copy of the page content settings document in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client. A non-positive ttl uses DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Connect parses redisURL, opens a client and verifies it with PING.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// Get returns the cached document. ok is false on a cache miss.
func (c *Cache) Get(ctx context.Context) (*models.PageContentSettings, bool, error) {
	raw, err := c.client.Get(ctx, Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached page content: %w", err)
	}

	var doc models.PageContentSettings
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("decode cached page content: %w", err)
	}
	doc.ID = models.PageContentDocumentID
	if doc.Pages == nil {
		doc.Pages = map[string]any{}
	}
	return &doc, true, nil
}

// setIfNotOlder writes ARGV[1] unless the cached value carries a higher
// version than ARGV[2]. An unreadable cached value is overwritten.
// Returns 1 when written, 0 when a newer version was kept.
var setIfNotOlder = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	local ok, doc = pcall(cjson.decode, cur)
	if ok and type(doc) == "table" and tonumber(doc["version"]) and tonumber(doc["version"]) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// Set caches doc unless a newer version is already cached. A slow reader
// that loaded an old document can therefore never hide a completed write.
func (c *Cache) Set(ctx context.Context, doc *models.PageContentSettings) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode page content: %w", err)
	}
	err = setIfNotOlder.Run(ctx, c.client, []string{Key}, raw, doc.Version, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("set cached page content: %w", err)
	}
	return nil
}
