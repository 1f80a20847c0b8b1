package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// dayKey is the calendar-day bucket format for the click series.
const dayKey = "2006-01-02"

// Summary is the analytics view of one short link over the trailing week.
type Summary struct {
	TotalClicks  int64          `json:"totalClicks"`
	RecentClicks int            `json:"recentClicks"`
	Countries    map[string]int `json:"countries"`
	Devices      map[string]int `json:"devices"`
	Browsers     map[string]int `json:"browsers"`
	Referrers    map[string]int `json:"referrers"`
	DailyClicks  map[string]int `json:"dailyClicks"`
	OriginalURL  string         `json:"originalUrl"`
	ShortCode    string         `json:"shortCode"`
	CreatedAt    time.Time      `json:"createdAt"`
	ExpiryDate   *time.Time     `json:"expiryDate,omitempty"`
	DemoMode     bool           `json:"demoMode,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// Summarize aggregates a link's analytics log: total clicks from the stored
// counter (tolerating historical counter/log drift), and the trailing seven
// calendar days grouped by country, device, browser, referrer and day.
func (s *ShortenerService) Summarize(ctx context.Context, code string) (*Summary, error) {
	if err := s.storage.Ping(ctx); err != nil {
		s.log.Warn("store unavailable, serving demo analytics", zap.String("short_code", code))
		return demoSummary(code), nil
	}

	link, err := s.storage.GetLinkWithAnalytics(ctx, code)
	if err != nil {
		return nil, err
	}

	// Calendar subtraction, not 7*24h: the window boundary keeps the
	// current time of day seven days back.
	cutoff := time.Now().AddDate(0, 0, -7)

	summary := &Summary{
		TotalClicks: link.Clicks,
		Countries:   make(map[string]int),
		Devices:     make(map[string]int),
		Browsers:    make(map[string]int),
		Referrers:   make(map[string]int),
		DailyClicks: make(map[string]int),
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		CreatedAt:   link.CreatedAt,
		ExpiryDate:  link.ExpiryDate,
	}

	for _, event := range link.Analytics {
		if event.Timestamp.Before(cutoff) {
			continue
		}
		summary.RecentClicks++

		summary.Countries[event.Country]++
		summary.Devices[event.Device]++

		browser := event.Browser
		if browser == "" {
			browser = "Unknown"
		}
		summary.Browsers[browser]++

		referrer := event.Referrer
		if referrer == "" {
			referrer = "Direct"
		}
		summary.Referrers[referrer]++

		summary.DailyClicks[event.Timestamp.UTC().Format(dayKey)]++
	}

	return summary, nil
}

// demoSummary is the fixed placeholder served while the store is down.
func demoSummary(code string) *Summary {
	daily := make(map[string]int)
	counts := []int{5, 8, 12, 6, 9, 7, 3}
	day := time.Now().UTC().AddDate(0, 0, -len(counts))
	for _, n := range counts {
		day = day.AddDate(0, 0, 1)
		daily[day.Format(dayKey)] = n
	}

	return &Summary{
		TotalClicks:  42,
		RecentClicks: 15,
		Countries:    map[string]int{"US": 20, "UK": 12, "CA": 10},
		Devices:      map[string]int{"Desktop": 25, "Mobile": 15, "Tablet": 2},
		Browsers:     map[string]int{"Chrome": 22, "Safari": 12, "Firefox": 8},
		Referrers:    map[string]int{"Direct": 30, "Google": 8, "Twitter": 4},
		DailyClicks:  daily,
		ShortCode:    code,
		DemoMode:     true,
		Message:      "Demo data - Analytics requires database connection",
	}
}
