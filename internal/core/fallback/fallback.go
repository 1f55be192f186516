// Package fallback 依序嘗試主要與備援服務，回傳第一個成功結果
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-ingestor/internal/pkg/common"
)

// ErrorKind 單次呼叫的結果分類
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindProviderFailure
	KindNotFound
	KindPartial
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindProviderFailure:
		return "provider_failure"
	case KindNotFound:
		return "not_found"
	case KindPartial:
		return "partial"
	case KindUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result 單一服務呼叫的明確結果
type Result[T any] struct {
	Value T
	Kind  ErrorKind
	Err   error
}

// OK 成功結果
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Kind: KindNone}
}

// Fail 失敗結果，value 可保留部分資料
func Fail[T any](kind ErrorKind, err error) Result[T] {
	if kind == KindNone {
		kind = KindProviderFailure
	}
	if err == nil {
		err = errors.New(kind.String())
	}
	return Result[T]{Kind: kind, Err: err}
}

// Succeeded 是否成功
func (r Result[T]) Succeeded() bool {
	return r.Kind == KindNone
}

// Named 具名服務
type Named[P any] struct {
	Name     string
	Provider P
}

// Chain 主要服務加上依序的備援服務
type Chain[P any] struct {
	providers []Named[P]
}

// NewChain 建立服務鏈
func NewChain[P any](primary Named[P], fallbacks ...Named[P]) *Chain[P] {
	providers := make([]Named[P], 0, len(fallbacks)+1)
	providers = append(providers, primary)
	providers = append(providers, fallbacks...)
	return &Chain[P]{providers: providers}
}

// Providers 依嘗試順序回傳服務
func (c *Chain[P]) Providers() []Named[P] {
	out := make([]Named[P], len(c.providers))
	copy(out, c.providers)
	return out
}

// Len 服務數量
func (c *Chain[P]) Len() int {
	return len(c.providers)
}

// Status 整體結果狀態
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Attempt 一次嘗試的紀錄
type Attempt struct {
	Provider string
	Kind     ErrorKind
	Err      error
	Duration time.Duration
}

// Outcome 整條服務鏈的結果，失敗不會以 panic 或 error 回傳
type Outcome[T any] struct {
	Status   Status
	Value    T
	Provider string
	Attempts []Attempt
	Err      error
}

// OK 是否成功
func (o Outcome[T]) OK() bool {
	return o.Status == StatusSuccess
}

// Do 依序呼叫每個服務一次，不重試，回傳第一個成功結果
func Do[P, T any](ctx context.Context, chain *Chain[P], op string, call func(context.Context, P) Result[T]) Outcome[T] {
	var out Outcome[T]
	if chain == nil || len(chain.providers) == 0 {
		out.Status = StatusFailed
		out.Err = errors.New("no providers configured")
		return out
	}

	for i, p := range chain.providers {
		if err := ctx.Err(); err != nil {
			common.LogWarn("服務鏈已取消", zap.String("op", op), zap.Error(err))
			out.Attempts = append(out.Attempts, Attempt{Provider: p.Name, Kind: KindUnavailable, Err: err})
			break
		}

		common.LogDebug("嘗試服務",
			zap.String("op", op),
			zap.String("provider", p.Name),
			zap.Int("position", i),
		)

		start := time.Now()
		res := invoke(ctx, p, call)
		elapsed := time.Since(start)
		out.Attempts = append(out.Attempts, Attempt{Provider: p.Name, Kind: res.Kind, Err: res.Err, Duration: elapsed})
		common.LogProviderCall(p.Name, op, elapsed, res.Err)

		if res.Succeeded() {
			out.Status = StatusSuccess
			out.Value = res.Value
			out.Provider = p.Name
			if i > 0 {
				common.LogInfo("備援服務成功", zap.String("op", op), zap.String("provider", p.Name), zap.Int("attempts", len(out.Attempts)))
			}
			return out
		}

		fields := []zap.Field{
			zap.String("op", op),
			zap.String("provider", p.Name),
			zap.String("kind", res.Kind.String()),
			zap.Error(res.Err),
		}
		if i+1 < len(chain.providers) {
			fields = append(fields, zap.String("next", chain.providers[i+1].Name))
			common.LogWarn("服務失敗，切換至備援", fields...)
		} else {
			common.LogWarn("服務失敗", fields...)
		}
	}

	out.Status = StatusFailed
	out.Err = aggregate(out.Attempts)
	common.LogError("所有服務皆失敗", zap.String("op", op), zap.Error(out.Err))
	return out
}

// invoke 呼叫單一服務並將 panic 轉為失敗結果
func invoke[P, T any](ctx context.Context, p Named[P], call func(context.Context, P) Result[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail[T](KindProviderFailure, fmt.Errorf("provider %s panicked: %v", p.Name, r))
		}
	}()
	res = call(ctx, p.Provider)
	if !res.Succeeded() && res.Err == nil {
		res.Err = errors.New(res.Kind.String())
	}
	return res
}

func aggregate(attempts []Attempt) error {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		msg := a.Kind.String()
		if a.Err != nil {
			msg = a.Err.Error()
		}
		parts = append(parts, a.Provider+": "+msg)
	}
	return &AllFailedError{Attempts: attempts, summary: strings.Join(parts, "; ")}
}

// ErrAllProvidersFailed 所有服務皆失敗
var ErrAllProvidersFailed = errors.New("all providers failed")

// AllFailedError 保留每次嘗試的錯誤
type AllFailedError struct {
	Attempts []Attempt
	summary  string
}

func (e *AllFailedError) Error() string {
	return ErrAllProvidersFailed.Error() + ": " + e.summary
}

func (e *AllFailedError) Unwrap() error {
	return ErrAllProvidersFailed
}
