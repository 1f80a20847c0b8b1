package service

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"

	"go.uber.org/zap"
)

// demoBatchLimit caps how many synthesized results a demo-mode batch returns.
const demoBatchLimit = 5

// BatchItem is one successfully shortened URL within a batch.
type BatchItem struct {
	OriginalURL string `json:"originalUrl"`
	ShortURL    string `json:"shortUrl"`
	ShortCode   string `json:"shortCode"`
}

// BatchResult holds the partial-success outcome of a bulk operation. Skipped
// counts inputs dropped for validation or persistence failures; the items
// themselves are not reported back.
type BatchResult struct {
	Results  []BatchItem `json:"results"`
	Skipped  int         `json:"skipped,omitempty"`
	DemoMode bool        `json:"demoMode,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// ProcessBatch shortens up to MaxBatchSize URLs sequentially. Invalid URLs
// are skipped, a persistence failure skips that item only, and earlier
// successes are never rolled back.
func (s *ShortenerService) ProcessBatch(ctx context.Context, urls []string, requestBase string) (*BatchResult, error) {
	if len(urls) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(urls) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	baseURL := s.baseURL(requestBase)

	if err := s.storage.Ping(ctx); err != nil {
		return s.demoBatch(urls, baseURL)
	}

	result := &BatchResult{Results: []BatchItem{}}

	for _, url := range urls {
		if url == "" || !ValidateURL(url) {
			result.Skipped++
			continue
		}

		code, err := s.allocate(ctx, "")
		if err != nil {
			s.log.Warn("failed to allocate code for batch item", zap.String("url", url), zap.Error(err))
			result.Skipped++
			continue
		}

		link := &domain.ShortLink{
			ShortCode:   code,
			OriginalURL: url,
		}
		if err := s.storage.SaveLink(ctx, link); err != nil {
			if errors.Is(err, repository.ErrCodeExists) {
				// Insert race on a generated code; one retry is plenty at
				// this collision probability.
				if code, err = s.allocate(ctx, ""); err == nil {
					link = &domain.ShortLink{ShortCode: code, OriginalURL: url}
					err = s.storage.SaveLink(ctx, link)
				}
			}
			if err != nil {
				s.log.Warn("failed to save batch item", zap.String("url", url), zap.Error(err))
				result.Skipped++
				continue
			}
		}

		result.Results = append(result.Results, BatchItem{
			OriginalURL: url,
			ShortURL:    baseURL + "/" + code,
			ShortCode:   code,
		})
	}

	s.log.Info("processed batch",
		zap.Int("submitted", len(urls)),
		zap.Int("shortened", len(result.Results)),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

// demoBatch synthesizes codes for the first few URLs without persistence.
func (s *ShortenerService) demoBatch(urls []string, baseURL string) (*BatchResult, error) {
	s.log.Warn("store unavailable, serving demo batch response", zap.Int("submitted", len(urls)))

	limit := len(urls)
	if limit > demoBatchLimit {
		limit = demoBatchLimit
	}

	result := &BatchResult{
		Results:  []BatchItem{},
		DemoMode: true,
		Message:  "Demo mode - Only first 5 URLs processed without database connection",
	}
	for _, url := range urls[:limit] {
		code, err := s.generator.Generate()
		if err != nil {
			return nil, err
		}
		result.Results = append(result.Results, BatchItem{
			OriginalURL: url,
			ShortURL:    baseURL + "/" + code,
			ShortCode:   code,
		})
	}
	return result, nil
}
