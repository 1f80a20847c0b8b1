package memory

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"sync"
	"time"
)

// MemStorage is an in-memory Storage implementation used in tests and as a
// reference for the contract's semantics.
type MemStorage struct {
	mu          sync.RWMutex
	byCode      map[string]*domain.ShortLink
	byAlias     map[string]*domain.ShortLink
	linkCounter int64
	unavailable bool
}

func New() *MemStorage {
	return &MemStorage{
		byCode:  make(map[string]*domain.ShortLink),
		byAlias: make(map[string]*domain.ShortLink),
	}
}

// SetAvailable toggles the simulated store health for demo-mode tests.
func (s *MemStorage) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = !available
}

func (s *MemStorage) SaveLink(_ context.Context, link *domain.ShortLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return repository.ErrUnavailable
	}

	if s.taken(link.ShortCode) {
		return repository.ErrCodeExists
	}
	if link.CustomAlias != nil && *link.CustomAlias != link.ShortCode && s.taken(*link.CustomAlias) {
		return repository.ErrCodeExists
	}

	s.linkCounter++
	link.ID = s.linkCounter
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	s.byCode[link.ShortCode] = link
	if link.CustomAlias != nil {
		s.byAlias[*link.CustomAlias] = link
	}
	return nil
}

func (s *MemStorage) GetLink(_ context.Context, code string) (*domain.ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable {
		return nil, repository.ErrUnavailable
	}
	link, ok := s.byCode[code]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	return link, nil
}

func (s *MemStorage) GetLinkWithAnalytics(ctx context.Context, code string) (*domain.ShortLink, error) {
	// Events are kept on the link itself, so this is the same lookup.
	return s.GetLink(ctx, code)
}

func (s *MemStorage) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable {
		return false, repository.ErrUnavailable
	}
	return s.taken(code), nil
}

func (s *MemStorage) AppendClick(_ context.Context, code string, event *domain.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return repository.ErrUnavailable
	}
	link, ok := s.byCode[code]
	if !ok {
		return repository.ErrCodeNotFound
	}
	event.LinkID = link.ID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	link.Analytics = append(link.Analytics, *event)
	link.Clicks++
	return nil
}

func (s *MemStorage) FindByCodes(_ context.Context, codes []string) ([]*domain.ShortLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable {
		return nil, repository.ErrUnavailable
	}
	var links []*domain.ShortLink
	for _, code := range codes {
		if link, ok := s.byCode[code]; ok {
			links = append(links, link)
		}
	}
	return links, nil
}

func (s *MemStorage) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable {
		return repository.ErrUnavailable
	}
	return nil
}

// taken reports whether code is used as a short code or a custom alias.
// Callers must hold the lock.
func (s *MemStorage) taken(code string) bool {
	if _, ok := s.byCode[code]; ok {
		return true
	}
	_, ok := s.byAlias[code]
	return ok
}
