// Package scraper 下載食譜頁面並解析 schema.org Recipe JSON-LD
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

var (
	// ErrHostNotAllowed 網域不在允許清單
	ErrHostNotAllowed = errors.New("host not allowed")
	// ErrFetchFailed 頁面下載失敗或非 200
	ErrFetchFailed = errors.New("fetch failed")
)

// Fetcher 以固定間隔下載頁面
type Fetcher struct {
	client   *resty.Client
	throttle *common.Throttle
	allowed  []string
}

// NewFetcher 創建下載器
func NewFetcher(cfg config.ScraperConfig) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	allowed := make([]string, 0, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		if h = normalizeHost(h); h != "" {
			allowed = append(allowed, h)
		}
	}

	return &Fetcher{
		client:   client,
		throttle: common.NewThrottle(cfg.RateLimit),
		allowed:  allowed,
	}
}

// IsAllowedHost 網址的網域等於允許網域或為其子網域；清單為空時全部允許
func (f *Fetcher) IsAllowedHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if len(f.allowed) == 0 {
		return true
	}
	host := normalizeHost(u.Hostname())
	for _, a := range f.allowed {
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// Fetch 下載頁面內容，每次請求前依設定等待
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !f.IsAllowedHost(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, rawURL)
	}
	if err := f.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	common.LogDebug("下載頁面", zap.String("url", rawURL))
	resp, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, rawURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, rawURL, resp.StatusCode())
	}
	return resp.Body(), nil
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.TrimPrefix(h, "www.")
}
