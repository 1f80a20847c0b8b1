package repository

import (
	"Shortly-Backend/internal/domain"
	"context"
	"errors"
)

var (
	// ErrCodeNotFound is returned when no link matches a short code.
	ErrCodeNotFound = errors.New("short code not found")
	// ErrCodeExists is returned when a code or custom alias is already taken.
	ErrCodeExists = errors.New("short code already exists")
	// ErrUnavailable is returned when the store cannot be reached; callers
	// switch to the degraded demo mode on it.
	ErrUnavailable = errors.New("storage unavailable")
)

// Storage is the narrow contract the core depends on. Codes and custom
// aliases live in one uniqueness namespace: CodeExists and SaveLink check
// both, GetLink matches the short code only.
type Storage interface {
	// SaveLink persists a new link. Returns ErrCodeExists when the code or
	// the custom alias is already taken by any record.
	SaveLink(ctx context.Context, link *domain.ShortLink) error

	// GetLink returns the link whose ShortCode equals code, without its
	// analytics log.
	GetLink(ctx context.Context, code string) (*domain.ShortLink, error)

	// GetLinkWithAnalytics returns the link with its full analytics log in
	// insertion order.
	GetLinkWithAnalytics(ctx context.Context, code string) (*domain.ShortLink, error)

	// CodeExists reports whether code is taken as either a ShortCode or a
	// CustomAlias.
	CodeExists(ctx context.Context, code string) (bool, error)

	// AppendClick appends one analytics event and increments the click
	// counter as a single logical update.
	AppendClick(ctx context.Context, code string, event *domain.AnalyticsEvent) error

	// FindByCodes returns the links for the given short codes, preserving
	// input order and skipping codes with no record.
	FindByCodes(ctx context.Context, codes []string) ([]*domain.ShortLink, error)

	// Ping reports store health; a non-nil error puts the core into demo mode.
	Ping(ctx context.Context) error
}
