package domain

import "time"

// ShortLink is the persisted mapping from a short code to its original URL.
// ShortCode and CustomAlias share one uniqueness namespace: a custom alias
// may never equal another record's code or alias.
type ShortLink struct {
	ID          int64            `gorm:"primaryKey;column:id" json:"id"`
	ShortCode   string           `gorm:"column:short_code;size:64;not null;uniqueIndex" json:"short_code"`
	CustomAlias *string          `gorm:"column:custom_alias;size:64;uniqueIndex" json:"custom_alias,omitempty"`
	OriginalURL string           `gorm:"column:original_url;type:text;not null" json:"original_url"`
	ExpiryDate  *time.Time       `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	Clicks      int64            `gorm:"column:clicks;not null;default:0" json:"clicks"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Analytics   []AnalyticsEvent `gorm:"foreignKey:LinkID" json:"analytics,omitempty"`
}

// TableName returns the table name for GORM.
func (ShortLink) TableName() string {
	return "short_links"
}

// Expired reports whether the link's expiry date has passed at the given time.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiryDate != nil && now.After(*l.ExpiryDate)
}
