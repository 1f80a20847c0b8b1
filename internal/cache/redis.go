package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when a code has no cached entry.
var ErrCacheMiss = errors.New("cache miss")

// Entry is the cached slice of a short link needed on the redirect hot path.
// Analytics appends always go to the store, so caching more would be wasted.
type Entry struct {
	OriginalURL string     `json:"original_url"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

// LinkCache caches redirect lookups keyed by short code.
type LinkCache interface {
	GetLink(ctx context.Context, code string) (*Entry, error)
	SetLink(ctx context.Context, code string, entry *Entry) error
	DeleteLink(ctx context.Context, code string) error
}

const linkTTL = time.Hour

type redisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisCache connects to Redis and returns a LinkCache.
func NewRedisCache(addr string, log *zap.Logger) (LinkCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("redirect cache connected", zap.String("addr", addr))
	return &redisCache{client: client, log: log}, nil
}

func linkKey(code string) string {
	return "link:" + code
}

func (r *redisCache) GetLink(ctx context.Context, code string) (*Entry, error) {
	data, err := r.client.Get(ctx, linkKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached link: %w", err)
	}
	return &entry, nil
}

func (r *redisCache) SetLink(ctx context.Context, code string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal link entry: %w", err)
	}
	return r.client.Set(ctx, linkKey(code), data, linkTTL).Err()
}

func (r *redisCache) DeleteLink(ctx context.Context, code string) error {
	return r.client.Del(ctx, linkKey(code)).Err()
}
