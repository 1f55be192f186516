package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

const defaultDedupWindow = time.Second

// Deduplicator 拒絕時間窗內重複的 POST 請求（相同路徑與請求體）
type Deduplicator struct {
	window time.Duration
	mu     sync.Mutex
	seen   map[string]time.Time
}

// NewDeduplicator window <= 0 時使用 1 秒
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &Deduplicator{window: window, seen: make(map[string]time.Time)}
}

// StartCleanup 定期清除過期指紋，ctx 取消時停止
func (d *Deduplicator) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				d.cleanup(now)
			}
		}
	}()
}

func (d *Deduplicator) cleanup(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.seen {
		if now.Sub(t) > 10*d.window {
			delete(d.seen, k)
		}
	}
}

// seenRecently 記錄指紋並回傳是否在時間窗內出現過
func (d *Deduplicator) seenRecently(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.seen[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.seen[fingerprint] = now
	return false
}

// Middleware 請求去重中間件
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			if len(body) > 0 {
				hash := sha256.Sum256(body)
				fingerprint += ":" + hex.EncodeToString(hash[:])
			}
		}

		if d.seenRecently(fingerprint, time.Now()) {
			common.LogInfo("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			common.WriteError(c, common.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
