package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService logs every sitemap discovery used to seed flat runs.
type LoggingSitemapService struct {
	next   harvest.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService wraps next.
func NewLoggingSitemapService(next harvest.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs logs the base URL, the filter sizes and the number of URLs
// found. Failures are logged at warn level.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *harvest.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		var include, exclude int
		if filter != nil {
			include, exclude = len(filter.Include), len(filter.Exclude)
		}
		s.logger.Log(ctx, level, "sitemap",
			"url", baseURL,
			"include", include,
			"exclude", exclude,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
