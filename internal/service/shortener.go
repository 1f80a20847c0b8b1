package service

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/cache"
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// maxSaveRetries bounds the retry-on-conflict loop for generated codes.
	// The pre-check makes conflicts rare; this guards the insert race.
	maxSaveRetries = 5

	// MaxBatchSize caps one bulk shorten request. Larger batches are
	// rejected wholesale, never truncated.
	MaxBatchSize = 100
)

var (
	// ErrAliasTaken is returned when a requested custom alias collides with
	// an existing short code or alias.
	ErrAliasTaken = errors.New("custom alias already exists")
	// ErrInvalidURL is returned for URLs that fail shape validation.
	ErrInvalidURL = errors.New("invalid URL format")
	// ErrLinkExpired is returned when a link exists but its expiry date has
	// passed. Distinct from not-found: the resource existed.
	ErrLinkExpired = errors.New("link has expired")
	// ErrBatchTooLarge is returned when a bulk request exceeds MaxBatchSize.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	// ErrEmptyBatch is returned when a bulk request contains no URLs.
	ErrEmptyBatch = errors.New("batch contains no URLs")
	// ErrNoExportData is returned when an export request yields no rows.
	ErrNoExportData = errors.New("no data to export")
)

// urlPattern is deliberately permissive: scheme http/https plus something
// dotted in the host position.
var urlPattern = regexp.MustCompile(`(?i)^https?://.+\..+`)

// Recorder is the analytics side effect triggered on successful resolution.
// Production wires the async analytics.Processor; tests use the synchronous
// analytics.Recorder or a stub.
type Recorder interface {
	Record(ctx context.Context, code string, req analytics.RequestContext)
}

// ShortenerService implements code allocation, redirect resolution, bulk
// orchestration, analytics summarization and export on top of the Storage
// contract.
type ShortenerService struct {
	storage   repository.Storage
	generator random.Generator
	recorder  Recorder
	cache     cache.LinkCache // optional redirect cache, may be nil
	config    *config.URLShortener
	log       *zap.Logger
}

// NewShortener creates the service. linkCache may be nil to disable the
// redirect cache.
func NewShortener(
	storage repository.Storage,
	generator random.Generator,
	recorder Recorder,
	linkCache cache.LinkCache,
	cfg *config.URLShortener,
	log *zap.Logger,
) *ShortenerService {
	return &ShortenerService{
		storage:   storage,
		generator: generator,
		recorder:  recorder,
		cache:     linkCache,
		config:    cfg,
		log:       log,
	}
}

// ShortenRequest is one shorten operation. BaseURL is the request-derived
// base for building the short URL; empty falls back to the configured base.
type ShortenRequest struct {
	URL         string
	CustomAlias string
	ExpiresAt   *time.Time
	BaseURL     string
}

// ShortenResult is the outcome of a shorten operation. DemoMode marks
// responses synthesized without persistence while the store is unreachable.
type ShortenResult struct {
	ShortURL    string `json:"shortUrl"`
	ShortCode   string `json:"shortCode"`
	OriginalURL string `json:"originalUrl"`
	DemoMode    bool   `json:"demoMode,omitempty"`
	Message     string `json:"message,omitempty"`
}

// NormalizeURL prepends https:// to scheme-less input. Deliberate
// normalization, not an error: "example.com" means "https://example.com".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "https://" + raw
	}
	return raw
}

// ValidateURL reports whether url passes shape validation.
func ValidateURL(url string) bool {
	return urlPattern.MatchString(url)
}

// Shorten validates the URL, allocates a unique code and persists the
// mapping. With the store unreachable it degrades to a non-persisted demo
// response instead of failing.
func (s *ShortenerService) Shorten(ctx context.Context, req ShortenRequest) (*ShortenResult, error) {
	url := NormalizeURL(req.URL)
	if url == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	if !ValidateURL(url) {
		return nil, ErrInvalidURL
	}

	alias := strings.TrimSpace(req.CustomAlias)
	baseURL := s.baseURL(req.BaseURL)

	if err := s.storage.Ping(ctx); err != nil {
		code := alias
		if code == "" {
			var genErr error
			code, genErr = s.generator.Generate()
			if genErr != nil {
				return nil, fmt.Errorf("failed to generate code: %w", genErr)
			}
		}
		s.log.Warn("store unavailable, serving demo shorten response", zap.String("short_code", code))
		return &ShortenResult{
			ShortURL:    baseURL + "/" + code,
			ShortCode:   code,
			OriginalURL: url,
			DemoMode:    true,
			Message:     "Demo mode - URL shortening requires database connection",
		}, nil
	}

	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		code, err := s.allocate(ctx, alias)
		if err != nil {
			return nil, err
		}

		link := &domain.ShortLink{
			ShortCode:   code,
			OriginalURL: url,
			ExpiryDate:  req.ExpiresAt,
		}
		if alias != "" {
			link.CustomAlias = &alias
		}

		err = s.storage.SaveLink(ctx, link)
		if err == nil {
			s.log.Info("created link", zap.String("short_code", code))
			return &ShortenResult{
				ShortURL:    baseURL + "/" + code,
				ShortCode:   code,
				OriginalURL: url,
			}, nil
		}
		if errors.Is(err, repository.ErrCodeExists) {
			if alias != "" {
				// Custom aliases are never regenerated.
				return nil, ErrAliasTaken
			}
			s.log.Debug("generated code lost insert race, retrying", zap.String("short_code", code))
			continue
		}
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	return nil, fmt.Errorf("failed to allocate unique code after %d attempts", maxSaveRetries)
}

// allocate resolves the code to persist: a free custom alias verbatim, or a
// generated code confirmed absent. The generation loop retries until the
// store reports the candidate free.
func (s *ShortenerService) allocate(ctx context.Context, alias string) (string, error) {
	if alias != "" {
		exists, err := s.storage.CodeExists(ctx, alias)
		if err != nil {
			return "", fmt.Errorf("failed to check custom alias: %w", err)
		}
		if exists {
			return "", ErrAliasTaken
		}
		return alias, nil
	}

	for {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		exists, err := s.storage.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
		if err := ctx.Err(); err != nil {
			// A saturated namespace would otherwise spin forever.
			return "", fmt.Errorf("code allocation aborted: %w", err)
		}
	}
}

func (s *ShortenerService) baseURL(requestBase string) string {
	if requestBase != "" {
		return strings.TrimSuffix(requestBase, "/")
	}
	return strings.TrimSuffix(s.config.BaseURL, "/")
}
