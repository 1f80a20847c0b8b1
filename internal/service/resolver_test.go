package service

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/cache"
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/internal/repository/memory"
	"Shortly-Backend/pkg/random"
	"Shortly-Backend/pkg/useragent"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	click := analytics.RequestContext{
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0",
		Referrer:  "https://google.com",
	}

	t.Run("redirect records one event per visit", func(t *testing.T) {
		svc, store := setupTestService(nil)

		created, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com/target"})
		require.NoError(t, err)

		const visits = 3
		for i := 0; i < visits; i++ {
			url, err := svc.Resolve(ctx, created.ShortCode, click)
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/target", url)
		}

		link, err := store.GetLinkWithAnalytics(ctx, created.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, int64(visits), link.Clicks)
		assert.Len(t, link.Analytics, visits)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		_, err := svc.Resolve(ctx, "nosuch", click)
		assert.ErrorIs(t, err, repository.ErrCodeNotFound)
	})

	t.Run("expired link returns gone without recording", func(t *testing.T) {
		svc, store := setupTestService(nil)

		past := time.Now().Add(-time.Hour)
		created, err := svc.Shorten(ctx, ShortenRequest{
			URL:       "https://example.com",
			ExpiresAt: &past,
		})
		require.NoError(t, err)

		_, err = svc.Resolve(ctx, created.ShortCode, click)
		assert.ErrorIs(t, err, ErrLinkExpired)

		// Expired visits leave no trace in the analytics log.
		link, err := store.GetLinkWithAnalytics(ctx, created.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, int64(0), link.Clicks)
		assert.Empty(t, link.Analytics)
	})

	t.Run("future expiry still redirects", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		future := time.Now().Add(24 * time.Hour)
		created, err := svc.Shorten(ctx, ShortenRequest{
			URL:       "https://example.com",
			ExpiresAt: &future,
		})
		require.NoError(t, err)

		url, err := svc.Resolve(ctx, created.ShortCode, click)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", url)
	})

	t.Run("store down refuses redirect", func(t *testing.T) {
		svc, store := setupTestService(nil)

		created, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com"})
		require.NoError(t, err)

		store.SetAvailable(false)
		_, err = svc.Resolve(ctx, created.ShortCode, click)
		assert.ErrorIs(t, err, repository.ErrUnavailable)
	})
}

// fakeCache is a map-backed LinkCache for exercising the cache-first path.
type fakeCache struct {
	entries map[string]*cache.Entry
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*cache.Entry)}
}

func (c *fakeCache) GetLink(_ context.Context, code string) (*cache.Entry, error) {
	entry, ok := c.entries[code]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	c.hits++
	return entry, nil
}

func (c *fakeCache) SetLink(_ context.Context, code string, entry *cache.Entry) error {
	c.entries[code] = entry
	return nil
}

func (c *fakeCache) DeleteLink(_ context.Context, code string) error {
	delete(c.entries, code)
	return nil
}

func TestResolveWithCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	log := zap.NewNop()
	recorder := analytics.NewRecorder(store, useragent.New(log), nil, log)
	cfg := &config.URLShortener{CodeLength: 6, BaseURL: "http://localhost:8080"}
	linkCache := newFakeCache()
	svc := NewShortener(store, random.NewCodeGenerator(6), recorder, linkCache, cfg, log)

	created, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com/cached"})
	require.NoError(t, err)

	// First resolve misses the cache and populates it.
	url, err := svc.Resolve(ctx, created.ShortCode, analytics.RequestContext{IP: "203.0.113.7"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", url)
	assert.Equal(t, 0, linkCache.hits)

	// Second resolve is served from the cache but still records the click.
	url, err = svc.Resolve(ctx, created.ShortCode, analytics.RequestContext{IP: "203.0.113.7"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", url)
	assert.Equal(t, 1, linkCache.hits)

	link, err := store.GetLinkWithAnalytics(ctx, created.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, int64(2), link.Clicks)
}

func TestResolveEventFields(t *testing.T) {
	ctx := context.Background()
	svc, store := setupTestService(nil)

	created, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com"})
	require.NoError(t, err)

	// A visit with no referrer, no GeoIP database and an unparseable agent
	// still yields a fully populated event.
	_, err = svc.Resolve(ctx, created.ShortCode, analytics.RequestContext{
		IP:        "198.51.100.2",
		UserAgent: "weird-bot/0.1",
	})
	require.NoError(t, err)

	link, err := store.GetLinkWithAnalytics(ctx, created.ShortCode)
	require.NoError(t, err)
	require.Len(t, link.Analytics, 1)

	event := link.Analytics[0]
	assert.Equal(t, "198.51.100.2", event.IP)
	assert.Equal(t, "Direct", event.Referrer)
	assert.Equal(t, "Unknown", event.Country)
	assert.Equal(t, "Desktop", event.Device)
	assert.Equal(t, "Unknown", event.Browser)
	assert.False(t, event.Timestamp.IsZero())
}
