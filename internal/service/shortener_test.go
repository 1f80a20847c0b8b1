package service

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository/memory"
	"Shortly-Backend/pkg/random"
	"Shortly-Backend/pkg/useragent"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seqGenerator returns a fixed sequence of codes, for forcing collisions.
type seqGenerator struct {
	codes []string
	next  int
}

func (g *seqGenerator) Generate() (string, error) {
	code := g.codes[g.next%len(g.codes)]
	g.next++
	return code, nil
}

func setupTestService(gen random.Generator) (*ShortenerService, *memory.MemStorage) {
	store := memory.New()
	log := zap.NewNop()
	if gen == nil {
		gen = random.NewCodeGenerator(6)
	}

	recorder := analytics.NewRecorder(store, useragent.New(log), nil, log)
	cfg := &config.URLShortener{CodeLength: 6, BaseURL: "http://localhost:8080"}
	return NewShortener(store, gen, recorder, nil, cfg, log), store
}

func TestShorten(t *testing.T) {
	ctx := context.Background()

	t.Run("generated code", func(t *testing.T) {
		svc, store := setupTestService(nil)

		result, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com/page"})
		require.NoError(t, err)
		assert.Len(t, result.ShortCode, 6)
		assert.Equal(t, "http://localhost:8080/"+result.ShortCode, result.ShortURL)
		assert.Equal(t, "https://example.com/page", result.OriginalURL)
		assert.False(t, result.DemoMode)

		link, err := store.GetLink(ctx, result.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", link.OriginalURL)
	})

	t.Run("normalizes scheme-less URL", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		result, err := svc.Shorten(ctx, ShortenRequest{URL: "example.com/path"})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/path", result.OriginalURL)
	})

	t.Run("rejects invalid URL", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		_, err := svc.Shorten(ctx, ShortenRequest{URL: "not a url"})
		assert.ErrorIs(t, err, ErrInvalidURL)

		_, err = svc.Shorten(ctx, ShortenRequest{URL: ""})
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("custom alias", func(t *testing.T) {
		svc, store := setupTestService(nil)

		result, err := svc.Shorten(ctx, ShortenRequest{
			URL:         "https://example.com",
			CustomAlias: "my-link",
		})
		require.NoError(t, err)
		assert.Equal(t, "my-link", result.ShortCode)

		link, err := store.GetLink(ctx, "my-link")
		require.NoError(t, err)
		require.NotNil(t, link.CustomAlias)
		assert.Equal(t, "my-link", *link.CustomAlias)
	})

	t.Run("taken alias conflicts without new record", func(t *testing.T) {
		svc, store := setupTestService(nil)

		_, err := svc.Shorten(ctx, ShortenRequest{URL: "https://first.example.com", CustomAlias: "taken"})
		require.NoError(t, err)

		_, err = svc.Shorten(ctx, ShortenRequest{URL: "https://second.example.com", CustomAlias: "taken"})
		assert.ErrorIs(t, err, ErrAliasTaken)

		// The original mapping is untouched.
		link, err := store.GetLink(ctx, "taken")
		require.NoError(t, err)
		assert.Equal(t, "https://first.example.com", link.OriginalURL)
	})

	t.Run("generated code collision retries", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"dupdup", "dupdup", "fresh1"}}
		svc, store := setupTestService(gen)

		first, err := svc.Shorten(ctx, ShortenRequest{URL: "https://one.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "dupdup", first.ShortCode)

		// The next allocation sees "dupdup" taken and keeps generating.
		second, err := svc.Shorten(ctx, ShortenRequest{URL: "https://two.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "fresh1", second.ShortCode)

		one, err := store.GetLink(ctx, "dupdup")
		require.NoError(t, err)
		assert.Equal(t, "https://one.example.com", one.OriginalURL)
	})

	t.Run("alias and generated codes share one namespace", func(t *testing.T) {
		gen := &seqGenerator{codes: []string{"shared", "other1"}}
		svc, _ := setupTestService(gen)

		_, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com", CustomAlias: "shared"})
		require.NoError(t, err)

		// A generated candidate equal to an existing alias must be rejected
		// and regenerated.
		result, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.org"})
		require.NoError(t, err)
		assert.Equal(t, "other1", result.ShortCode)
	})

	t.Run("saturated namespace terminates on cancellation", func(t *testing.T) {
		// Every candidate the generator produces is already taken, so the
		// allocation loop can only exit through context cancellation.
		gen := &seqGenerator{codes: []string{"stuck1"}}
		svc, store := setupTestService(gen)

		require.NoError(t, store.SaveLink(ctx, &domain.ShortLink{
			ShortCode:   "stuck1",
			OriginalURL: "https://example.com",
		}))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Shorten(cancelled, ShortenRequest{URL: "https://example.org"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("request base URL overrides configured base", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		result, err := svc.Shorten(ctx, ShortenRequest{
			URL:     "https://example.com",
			BaseURL: "https://sho.rt",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://sho.rt/"+result.ShortCode, result.ShortURL)
	})

	t.Run("demo mode when store is down", func(t *testing.T) {
		svc, store := setupTestService(nil)
		store.SetAvailable(false)

		result, err := svc.Shorten(ctx, ShortenRequest{URL: "https://example.com"})
		require.NoError(t, err)
		assert.True(t, result.DemoMode)
		assert.Len(t, result.ShortCode, 6)
		assert.Contains(t, result.Message, "Demo mode")

		// Nothing was persisted.
		store.SetAvailable(true)
		exists, err := store.CodeExists(ctx, result.ShortCode)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL("example.com"))
	assert.Equal(t, "https://example.com", NormalizeURL("  example.com  "))
	assert.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	assert.Equal(t, "https://example.com", NormalizeURL("https://example.com"))
	assert.Equal(t, "HTTPS://example.com", NormalizeURL("HTTPS://example.com"))
	assert.Equal(t, "", NormalizeURL("   "))
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://example.com"))
	assert.True(t, ValidateURL("http://sub.example.co.uk/path?q=1"))
	assert.False(t, ValidateURL("ftp://example.com"))
	assert.False(t, ValidateURL("https://localhost"))
	assert.False(t, ValidateURL("not a url"))
}
