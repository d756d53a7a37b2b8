package rediscache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/phrazzld/cardstock/internal/config"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "cardstock:export"

const scanBatchSize = 100

// commands is the subset of redis.Cmdable the cache uses.
type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// ExportCache caches export bytes with a fixed TTL.
type ExportCache struct {
	client commands
	closer func() error
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to the Redis server described by cfg and verifies the
// connection with PING.
func New(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*ExportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	c := newExportCache(client, time.Duration(cfg.CacheTTLMinutes)*time.Minute, logger)
	c.closer = client.Close

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.logger.Info("redis export cache initialized", slog.Duration("ttl", c.ttl))
	return c, nil
}

func newExportCache(client commands, ttl time.Duration, logger *slog.Logger) *ExportCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ExportCache{
		client: client,
		closer: func() error { return nil },
		ttl:    ttl,
		logger: logger.With(slog.String("component", "export_cache")),
	}
}

// Key derives the cache key for an export of deckID. fingerprint identifies
// everything the export depends on; it is hashed with BLAKE2b-256.
func Key(deckID uuid.UUID, fingerprint []byte) string {
	sum := blake2b.Sum256(fingerprint)
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, deckID, hex.EncodeToString(sum[:]))
}

func deckPattern(deckID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:*", KeyPrefix, deckID)
}

// Get returns the cached bytes for key. A missing key is reported as
// found=false with a nil error.
func (c *ExportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Set stores data under key with the configured TTL.
func (c *ExportCache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// InvalidateDeck deletes every cached export of deckID.
func (c *ExportCache) InvalidateDeck(ctx context.Context, deckID uuid.UUID) error {
	pattern := deckPattern(deckID)
	var cursor uint64
	deleted := int64(0)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			deleted += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	c.logger.DebugContext(ctx, "invalidated deck exports",
		slog.String("deck_id", deckID.String()),
		slog.Int64("deleted", deleted))
	return nil
}

// Ping checks connectivity.
func (c *ExportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *ExportCache) Close() error {
	return c.closer()
}
