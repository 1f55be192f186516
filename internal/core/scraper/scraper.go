package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

// Scraper 下載並解析食譜頁面
type Scraper struct {
	fetcher *Fetcher
}

// New 創建擷取器
func New(fetcher *Fetcher) *Scraper {
	return &Scraper{fetcher: fetcher}
}

// IsAllowedHost 見 Fetcher.IsAllowedHost
func (s *Scraper) IsAllowedHost(rawURL string) bool {
	return s.fetcher.IsAllowedHost(rawURL)
}

// Scrape 下載頁面並取出 Recipe JSON-LD
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Page, error) {
	start := time.Now()
	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(body, rawURL)
	if err != nil {
		common.LogWarn("頁面沒有食譜資料", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	common.LogDebug("頁面擷取完成",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return page, nil
}
