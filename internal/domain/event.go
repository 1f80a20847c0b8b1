package domain

import "time"

// AnalyticsEvent is one recorded visit of a short link. Events are
// append-only and have no identity outside their link.
type AnalyticsEvent struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID    int64     `gorm:"column:link_id;not null;index" json:"link_id"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
	IP        string    `gorm:"column:ip;size:64" json:"ip,omitempty"`
	UserAgent string    `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Referrer  string    `gorm:"column:referrer;size:500" json:"referrer"`
	Country   string    `gorm:"column:country;size:64" json:"country"`
	Device    string    `gorm:"column:device;size:10" json:"device"`
	Browser   string    `gorm:"column:browser;size:64" json:"browser"`
}

// TableName returns the table name for GORM.
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
