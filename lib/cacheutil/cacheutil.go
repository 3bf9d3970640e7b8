package cacheutil

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("trolley.lib.cacheutil")

// Standard expiries for query results. Hot listing endpoints get the
// short ttl, slow-moving reference data the long ones.
const (
	TTLShort  = 5 * time.Minute
	TTLMedium = 10 * time.Minute
	TTLHour   = time.Hour
	TTLDay    = 24 * time.Hour
)

type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Cache is a thin json-over-redis layer. The zero value (and any
// Cache built from an unreachable redis) is a no-op, reads miss and
// writes vanish, so callers never need to branch on availability.
type Cache struct {
	client *redis.Client
}

// New connects to redis and pings it. When redis is unreachable the
// returned Cache is disabled rather than failing the caller, the
// backend keeps serving straight from sqlite.
func New(ctx context.Context, config Config) Cache {
	if config.Addr == "" {
		return Cache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*2)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		slog.Warn("redis unavailable, response caching disabled", "addr", config.Addr, "err", err)
		return Cache{}
	}

	slog.Info("connected to redis", "addr", config.Addr, "db", config.DB)
	return Cache{client: client}
}

func (c Cache) Enabled() bool {
	return c.client != nil
}

// Key derives a cache key from a prefix and the request parameters
// that shaped the response. Params are hashed order-independently so
// equivalent requests share an entry.
func Key(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte('&')
	}
	sum := md5.Sum([]byte(b.String()))
	return prefix + ":" + hex.EncodeToString(sum[:])[:12]
}

// GetJSON reports whether key was present and, if so, unmarshals the
// cached payload into out.
func (c Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if c.client == nil {
		return false
	}

	ctx, span := tracer.Start(ctx, "GetJSON", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		span.SetAttributes(attribute.Bool("hit", false))
		return false
	}
	err = json.Unmarshal(raw, out)
	if err != nil {
		slog.Warn("corrupt cache entry", "key", key, "err", err)
		c.client.Del(ctx, key)
		return false
	}
	span.SetAttributes(attribute.Bool("hit", true))
	return true
}

func (c Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.client == nil {
		return
	}

	ctx, span := tracer.Start(ctx, "SetJSON", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("failed to marshal cache entry", "key", key, "err", err)
		return
	}
	err = c.client.Set(ctx, key, raw, ttl).Err()
	if err != nil {
		slog.Warn("failed to write cache entry", "key", key, "err", err)
	}
}

// Invalidate deletes every key under the given prefix and returns how
// many were removed.
func (c Cache) Invalidate(ctx context.Context, prefix string) int {
	if c.client == nil {
		return 0
	}

	ctx, span := tracer.Start(ctx, "Invalidate", trace.WithAttributes(
		attribute.String("prefix", prefix),
	))
	defer span.End()

	deleted := 0
	iter := c.client.Scan(ctx, 0, prefix+":*", 100).Iterator()
	batch := []string{}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			deleted += int(c.client.Del(ctx, batch...).Val())
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		deleted += int(c.client.Del(ctx, batch...).Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("cache invalidation scan failed", "prefix", prefix, "err", err)
	}

	span.SetAttributes(attribute.Int("deleted", deleted))
	return deleted
}
