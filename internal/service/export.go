package service

import (
	"Shortly-Backend/internal/domain"
	"context"
	"time"

	"go.uber.org/zap"
)

// ExportRow is one line of a tabular export.
type ExportRow struct {
	OriginalURL  string
	ShortURL     string
	ShortCode    string
	CreationDate string // YYYY-MM-DD
	ClickCount   int64
}

// ExportRows builds export rows from either previously returned batch
// results or a list of short codes. For results the store backfills creation
// date and click count when reachable; for bare codes the store is required.
func (s *ShortenerService) ExportRows(ctx context.Context, results []BatchItem, shortCodes []string, requestBase string) ([]ExportRow, error) {
	switch {
	case len(results) > 0:
		return s.exportFromResults(ctx, results), nil
	case len(shortCodes) > 0:
		return s.exportFromCodes(ctx, shortCodes, s.baseURL(requestBase))
	default:
		return nil, ErrNoExportData
	}
}

func (s *ShortenerService) exportFromResults(ctx context.Context, results []BatchItem) []ExportRow {
	today := time.Now().UTC().Format(dayKey)

	// Best effort: the rows already carry everything except creation date
	// and clicks, so a dead store only costs the backfill.
	byCode := make(map[string]*domain.ShortLink)
	if s.storage.Ping(ctx) == nil {
		codes := make([]string, 0, len(results))
		for _, r := range results {
			if r.ShortCode != "" {
				codes = append(codes, r.ShortCode)
			}
		}
		links, err := s.storage.FindByCodes(ctx, codes)
		if err != nil {
			s.log.Warn("export backfill query failed, using results data only", zap.Error(err))
		}
		for _, link := range links {
			byCode[link.ShortCode] = link
		}
	}

	rows := make([]ExportRow, 0, len(results))
	for _, r := range results {
		row := ExportRow{
			OriginalURL:  r.OriginalURL,
			ShortURL:     r.ShortURL,
			ShortCode:    r.ShortCode,
			CreationDate: today,
		}
		if link, ok := byCode[r.ShortCode]; ok {
			row.CreationDate = link.CreatedAt.UTC().Format(dayKey)
			row.ClickCount = link.Clicks
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *ShortenerService) exportFromCodes(ctx context.Context, shortCodes []string, baseURL string) ([]ExportRow, error) {
	if err := s.storage.Ping(ctx); err != nil {
		return nil, err
	}

	links, err := s.storage.FindByCodes(ctx, shortCodes)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoExportData
	}

	rows := make([]ExportRow, 0, len(links))
	for _, link := range links {
		rows = append(rows, ExportRow{
			OriginalURL:  link.OriginalURL,
			ShortURL:     baseURL + "/" + link.ShortCode,
			ShortCode:    link.ShortCode,
			CreationDate: link.CreatedAt.UTC().Format(dayKey),
			ClickCount:   link.Clicks,
		})
	}
	return rows, nil
}
