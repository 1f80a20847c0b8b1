package service

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/cache"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Resolve maps a short code to its original URL. Expired links return
// ErrLinkExpired without any mutation; only the success path records an
// analytics event and bumps the click counter.
func (s *ShortenerService) Resolve(ctx context.Context, code string, req analytics.RequestContext) (string, error) {
	if err := s.storage.Ping(ctx); err != nil {
		s.log.Warn("store unavailable, refusing redirect", zap.String("short_code", code))
		return "", repository.ErrUnavailable
	}

	if s.cache != nil {
		if url, err := s.resolveFromCache(ctx, code, req); err == nil {
			return url, nil
		} else if errors.Is(err, ErrLinkExpired) {
			return "", err
		}
		// Cache miss or cache failure: fall through to the store.
	}

	link, err := s.storage.GetLink(ctx, code)
	if err != nil {
		return "", err
	}

	if link.Expired(time.Now()) {
		return "", ErrLinkExpired
	}

	if s.cache != nil {
		entry := &cache.Entry{OriginalURL: link.OriginalURL, ExpiryDate: link.ExpiryDate}
		if err := s.cache.SetLink(ctx, code, entry); err != nil {
			s.log.Debug("failed to cache link", zap.String("short_code", code), zap.Error(err))
		}
	}

	s.recorder.Record(ctx, code, req)

	return link.OriginalURL, nil
}

// resolveFromCache serves the redirect hot path from the cache. The
// analytics append still goes through the store, so cache hits keep the
// clicks counter and event log in step.
func (s *ShortenerService) resolveFromCache(ctx context.Context, code string, req analytics.RequestContext) (string, error) {
	entry, err := s.cache.GetLink(ctx, code)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Debug("redirect cache lookup failed", zap.String("short_code", code), zap.Error(err))
		}
		return "", fmt.Errorf("cache: %w", err)
	}

	if entry.ExpiryDate != nil && time.Now().After(*entry.ExpiryDate) {
		return "", ErrLinkExpired
	}

	s.recorder.Record(ctx, code, req)

	return entry.OriginalURL, nil
}
