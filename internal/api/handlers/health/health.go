// Package health 健康、就緒與存活檢查
package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"recipe-ingestor/internal/core/pipeline"
)

// readyTimeout 就緒檢查的總時限
const readyTimeout = 10 * time.Second

// ProviderStatus *cuisine.Manager 與 *macro.Manager 即符合
type ProviderStatus interface {
	ProviderStatus(ctx context.Context) map[string]bool
}

// Check 單一依賴的可用性檢查
type Check func(ctx context.Context) error

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *pipeline.QueueStatus  `json:"queue,omitempty"`
}

// ReadyResponse 就緒檢查響應
type ReadyResponse struct {
	Status       string                     `json:"status"`
	Providers    map[string]map[string]bool `json:"providers"`
	Dependencies map[string]string          `json:"dependencies"`
}

// Handler 健康檢查處理器
type Handler struct {
	version   string
	queue     *pipeline.Queue
	providers map[string]ProviderStatus
	checks    map[string]Check
}

// NewHandler queue 可為 nil
func NewHandler(version string, queue *pipeline.Queue) *Handler {
	return &Handler{
		version:   version,
		queue:     queue,
		providers: map[string]ProviderStatus{},
		checks:    map[string]Check{},
	}
}

// AddProviders 註冊一組外部服務；至少一個可用即視為就緒
func (h *Handler) AddProviders(name string, p ProviderStatus) *Handler {
	h.providers[name] = p
	return h
}

// AddCheck 註冊必要依賴，例如資料庫
func (h *Handler) AddCheck(name string, check Check) *Handler {
	h.checks[name] = check
	return h
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		resp.Queue = h.queue.Status()
	}
	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck 依賴皆可用且每組服務至少一個可用時為 ready，否則 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	resp := ReadyResponse{
		Status:       "ready",
		Providers:    map[string]map[string]bool{},
		Dependencies: map[string]string{},
	}

	for _, name := range sortedKeys(h.checks) {
		if err := h.checks[name](ctx); err != nil {
			resp.Dependencies[name] = err.Error()
			resp.Status = "not_ready"
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	for _, name := range sortedKeys(h.providers) {
		status := h.providers[name].ProviderStatus(ctx)
		resp.Providers[name] = status
		if !anyTrue(status) {
			resp.Status = "not_ready"
		}
	}

	if h.queue != nil && h.queue.Status().Closed {
		resp.Status = "not_ready"
	}

	code := http.StatusOK
	if resp.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func anyTrue(m map[string]bool) bool {
	for _, ok := range m {
		if ok {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
