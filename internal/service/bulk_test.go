package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("shortens every valid URL", func(t *testing.T) {
		svc, store := setupTestService(nil)

		urls := []string{
			"https://example.com/a",
			"https://example.com/b",
			"https://example.com/c",
		}
		result, err := svc.ProcessBatch(ctx, urls, "")
		require.NoError(t, err)
		require.Len(t, result.Results, 3)
		assert.Zero(t, result.Skipped)

		for i, item := range result.Results {
			assert.Equal(t, urls[i], item.OriginalURL)
			link, err := store.GetLink(ctx, item.ShortCode)
			require.NoError(t, err)
			assert.Equal(t, urls[i], link.OriginalURL)
		}
	})

	t.Run("skips invalid items and keeps the rest", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		urls := []string{
			"https://example.com/ok",
			"not a url",
			"",
			"https://example.com/also-ok",
		}
		result, err := svc.ProcessBatch(ctx, urls, "")
		require.NoError(t, err)
		assert.Len(t, result.Results, 2)
		assert.Equal(t, 2, result.Skipped)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		_, err := svc.ProcessBatch(ctx, nil, "")
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})

	t.Run("rejects oversized batch wholesale", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		urls := make([]string, MaxBatchSize+1)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://example.com/%d", i)
		}
		_, err := svc.ProcessBatch(ctx, urls, "")
		assert.ErrorIs(t, err, ErrBatchTooLarge)
	})

	t.Run("accepts batch at the limit", func(t *testing.T) {
		svc, _ := setupTestService(nil)

		urls := make([]string, MaxBatchSize)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://example.com/%d", i)
		}
		result, err := svc.ProcessBatch(ctx, urls, "")
		require.NoError(t, err)
		assert.Len(t, result.Results, MaxBatchSize)
	})

	t.Run("demo mode caps at five synthesized results", func(t *testing.T) {
		svc, store := setupTestService(nil)
		store.SetAvailable(false)

		urls := make([]string, 8)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://example.com/%d", i)
		}
		result, err := svc.ProcessBatch(ctx, urls, "")
		require.NoError(t, err)
		assert.True(t, result.DemoMode)
		assert.Len(t, result.Results, 5)
		assert.Contains(t, result.Message, "Demo mode")
	})
}
