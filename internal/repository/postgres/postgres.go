package postgres

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage implements the Storage contract on PostgreSQL via GORM.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a PostgreSQL storage instance.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// SaveLink persists a new short link. The unique indexes on short_code and
// custom_alias are the authority; a duplicate-key rejection maps to
// ErrCodeExists so the allocation loop can retry.
func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.ShortLink) error {
	taken, err := s.CodeExists(ctx, link.ShortCode)
	if err != nil {
		return err
	}
	if !taken && link.CustomAlias != nil {
		taken, err = s.CodeExists(ctx, *link.CustomAlias)
		if err != nil {
			return err
		}
	}
	if taken {
		return repository.ErrCodeExists
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race between the existence check and the insert.
			return repository.ErrCodeExists
		}
		s.log.Error("failed to save link", zap.String("short_code", link.ShortCode), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("short_code", link.ShortCode))
	return nil
}

// GetLink returns the link with the exact short code, without its analytics log.
func (s *PostgresStorage) GetLink(ctx context.Context, code string) (*domain.ShortLink, error) {
	var link domain.ShortLink

	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCodeNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("short_code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// GetLinkWithAnalytics returns the link with its analytics log in insertion order.
func (s *PostgresStorage) GetLinkWithAnalytics(ctx context.Context, code string) (*domain.ShortLink, error) {
	var link domain.ShortLink

	err := s.db.WithContext(ctx).
		Preload("Analytics", func(db *gorm.DB) *gorm.DB {
			return db.Order("analytics_events.id ASC")
		}).
		Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCodeNotFound
	}
	if err != nil {
		s.log.Error("failed to get link with analytics", zap.String("short_code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get link with analytics: %w", err)
	}

	return &link, nil
}

// CodeExists checks the shared namespace: short codes and custom aliases.
func (s *PostgresStorage) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.ShortLink{}).
		Where("short_code = ? OR custom_alias = ?", code, code).
		Count(&count).Error
	if err != nil {
		s.log.Error("failed to check code existence", zap.String("code", code), zap.Error(err))
		return false, fmt.Errorf("failed to check code: %w", err)
	}

	return count > 0, nil
}

// AppendClick inserts one analytics event and increments the click counter
// in a single transaction, keeping clicks equal to the log length.
func (s *PostgresStorage) AppendClick(ctx context.Context, code string, event *domain.AnalyticsEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link domain.ShortLink
		if err := tx.Where("short_code = ?", code).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrCodeNotFound
			}
			return fmt.Errorf("failed to get link for click: %w", err)
		}

		event.LinkID = link.ID
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}

		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to create analytics event: %w", err)
		}

		if err := tx.Model(&link).Update("clicks", gorm.Expr("clicks + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment clicks: %w", err)
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrCodeNotFound) {
			s.log.Error("failed to append click", zap.String("short_code", code), zap.Error(err))
		}
		return err
	}

	s.log.Debug("recorded click", zap.String("short_code", code), zap.String("device", event.Device))
	return nil
}

// FindByCodes returns the links for the given short codes, preserving input order.
func (s *PostgresStorage) FindByCodes(ctx context.Context, codes []string) ([]*domain.ShortLink, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	var found []*domain.ShortLink
	err := s.db.WithContext(ctx).Where("short_code IN ?", codes).Find(&found).Error
	if err != nil {
		s.log.Error("failed to find links by codes", zap.Int("codes", len(codes)), zap.Error(err))
		return nil, fmt.Errorf("failed to find links: %w", err)
	}

	byCode := make(map[string]*domain.ShortLink, len(found))
	for _, link := range found {
		byCode[link.ShortCode] = link
	}

	var links []*domain.ShortLink
	for _, code := range codes {
		if link, ok := byCode[code]; ok {
			links = append(links, link)
		}
	}
	return links, nil
}

// Ping reports database health; failures map to ErrUnavailable so the core
// can switch to demo mode.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return repository.ErrUnavailable
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		s.log.Warn("database ping failed", zap.Error(err))
		return repository.ErrUnavailable
	}
	return nil
}
