package memory

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		store := New()

		link := &domain.ShortLink{ShortCode: "abc123", OriginalURL: "https://example.com"}
		require.NoError(t, store.SaveLink(ctx, link))
		assert.NotZero(t, link.ID)
		assert.False(t, link.CreatedAt.IsZero())

		got, err := store.GetLink(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.OriginalURL)

		_, err = store.GetLink(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrCodeNotFound)
	})

	t.Run("duplicate code", func(t *testing.T) {
		store := New()

		require.NoError(t, store.SaveLink(ctx, &domain.ShortLink{ShortCode: "dup", OriginalURL: "https://a.example.com"}))
		err := store.SaveLink(ctx, &domain.ShortLink{ShortCode: "dup", OriginalURL: "https://b.example.com"})
		assert.ErrorIs(t, err, repository.ErrCodeExists)
	})

	t.Run("alias occupies the code namespace", func(t *testing.T) {
		store := New()

		alias := "branded"
		require.NoError(t, store.SaveLink(ctx, &domain.ShortLink{
			ShortCode:   "branded",
			CustomAlias: &alias,
			OriginalURL: "https://example.com",
		}))

		exists, err := store.CodeExists(ctx, "branded")
		require.NoError(t, err)
		assert.True(t, exists)

		err = store.SaveLink(ctx, &domain.ShortLink{ShortCode: "branded", OriginalURL: "https://other.example.com"})
		assert.ErrorIs(t, err, repository.ErrCodeExists)
	})

	t.Run("append click", func(t *testing.T) {
		store := New()

		require.NoError(t, store.SaveLink(ctx, &domain.ShortLink{ShortCode: "clicky", OriginalURL: "https://example.com"}))
		require.NoError(t, store.AppendClick(ctx, "clicky", &domain.AnalyticsEvent{IP: "203.0.113.1"}))
		require.NoError(t, store.AppendClick(ctx, "clicky", &domain.AnalyticsEvent{IP: "203.0.113.2"}))

		link, err := store.GetLinkWithAnalytics(ctx, "clicky")
		require.NoError(t, err)
		assert.Equal(t, int64(2), link.Clicks)
		require.Len(t, link.Analytics, 2)
		assert.False(t, link.Analytics[0].Timestamp.IsZero())

		err = store.AppendClick(ctx, "missing", &domain.AnalyticsEvent{})
		assert.ErrorIs(t, err, repository.ErrCodeNotFound)
	})

	t.Run("find by codes", func(t *testing.T) {
		store := New()

		require.NoError(t, store.SaveLink(ctx, &domain.ShortLink{ShortCode: "one", OriginalURL: "https://one.example.com"}))
		require.NoError(t, store.SaveLink(ctx, &domain.ShortLink{ShortCode: "two", OriginalURL: "https://two.example.com"}))

		links, err := store.FindByCodes(ctx, []string{"one", "missing", "two"})
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, "one", links[0].ShortCode)
		assert.Equal(t, "two", links[1].ShortCode)
	})

	t.Run("unavailable store fails everything", func(t *testing.T) {
		store := New()
		store.SetAvailable(false)

		assert.ErrorIs(t, store.Ping(ctx), repository.ErrUnavailable)
		assert.ErrorIs(t, store.SaveLink(ctx, &domain.ShortLink{ShortCode: "x"}), repository.ErrUnavailable)
		_, err := store.GetLink(ctx, "x")
		assert.ErrorIs(t, err, repository.ErrUnavailable)

		store.SetAvailable(true)
		assert.NoError(t, store.Ping(ctx))
	})
}
