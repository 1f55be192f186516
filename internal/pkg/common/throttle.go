package common

import (
	"context"
	"sync"
	"time"
)

// Throttle 保證兩次呼叫之間至少間隔 interval
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewThrottle interval <= 0 時不限制
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait 等到可以送出下一個請求，ctx 取消時提前返回
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if wait := t.interval - time.Since(t.last); wait > 0 {
			if err := Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	t.last = time.Now()
	return nil
}

// Sleep 可被 ctx 中斷的等待
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
