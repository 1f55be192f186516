// Package recipe 食材解析、食譜正規化與匯入的 HTTP 處理程序
package recipe

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/pipeline"
	"recipe-ingestor/internal/infrastructure/postgres"
	"recipe-ingestor/internal/pkg/common"
)

// URLRequest 以食譜網址為輸入的請求
type URLRequest struct {
	URL    string `json:"url" binding:"required,url"`
	Enrich bool   `json:"enrich,omitempty"` // 只用於 normalize
	Wait   bool   `json:"wait,omitempty"`   // 只用於 ingest，等待處理完成
}

// IngestAccepted 已排入隊列
type IngestAccepted struct {
	Status      string `json:"status"`
	URL         string `json:"url"`
	QueueLength int    `json:"queue_length"`
}

// HostChecker *scraper.Scraper 即符合
type HostChecker interface {
	IsAllowedHost(rawURL string) bool
}

// RecipeLookup *postgres.RecipeRepo 即符合
type RecipeLookup interface {
	GetBySourceURL(ctx context.Context, sourceURL string) (*postgres.StoredRecipe, error)
}

// Handler 食譜處理程序；queue 與 lookup 可為 nil
type Handler struct {
	processor *pipeline.Processor
	queue     *pipeline.Queue
	hosts     HostChecker
	lookup    RecipeLookup
}

// NewHandler 創建新的食譜處理程序
func NewHandler(processor *pipeline.Processor, queue *pipeline.Queue, hosts HostChecker, lookup RecipeLookup) *Handler {
	return &Handler{
		processor: processor,
		queue:     queue,
		hosts:     hosts,
		lookup:    lookup,
	}
}

func (h *Handler) bindURL(c *gin.Context) (*URLRequest, bool) {
	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestid.Get(c)))
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return nil, false
	}
	if h.hosts != nil && !h.hosts.IsAllowedHost(req.URL) {
		common.WriteError(c, common.ErrHostNotAllowed)
		return nil, false
	}
	return &req, true
}

// HandleNormalize 擷取並正規化，不儲存
func (h *Handler) HandleNormalize(c *gin.Context) {
	req, ok := h.bindURL(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	data, err := h.processor.Normalize(ctx, req.URL)
	if err != nil {
		common.LogWarn("食譜正規化失敗",
			zap.String("url", req.URL),
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		common.WriteError(c, toAPIError(err))
		return
	}

	enriched := []string{}
	if req.Enrich {
		enriched = append(enriched, h.processor.Enrich(ctx, data)...)
	}
	c.JSON(http.StatusOK, gin.H{
		"recipe":   data,
		"enriched": enriched,
	})
}

// HandleIngest 排入匯入隊列；wait 為 true 時等待結果
func (h *Handler) HandleIngest(c *gin.Context) {
	if h.queue == nil {
		common.WriteError(c, common.ErrServiceUnavailable.Wrap(errors.New("ingest queue disabled")))
		return
	}
	req, ok := h.bindURL(c)
	if !ok {
		return
	}

	ch, err := h.queue.Enqueue(c.Request.Context(), req.URL)
	if err != nil {
		common.LogWarn("無法加入隊列", zap.String("url", req.URL), zap.Error(err))
		common.WriteError(c, toAPIError(err))
		return
	}

	if !req.Wait {
		c.JSON(http.StatusAccepted, IngestAccepted{
			Status:      "QUEUED",
			URL:         req.URL,
			QueueLength: h.queue.Status().QueueLength,
		})
		return
	}

	select {
	case out := <-ch:
		if out.Error != nil {
			common.WriteError(c, toAPIError(out.Error))
			return
		}
		c.JSON(http.StatusOK, out.Result)
	case <-c.Request.Context().Done():
		common.WriteError(c, toAPIError(c.Request.Context().Err()))
	}
}

// HandleQueueStatus 隊列狀態
func (h *Handler) HandleQueueStatus(c *gin.Context) {
	if h.queue == nil {
		common.WriteError(c, common.ErrServiceUnavailable.Wrap(errors.New("ingest queue disabled")))
		return
	}
	c.JSON(http.StatusOK, h.queue.Status())
}

// HandleGet 依來源網址讀取已儲存的食譜
func (h *Handler) HandleGet(c *gin.Context) {
	if h.lookup == nil {
		common.WriteError(c, common.ErrServiceUnavailable.Wrap(errors.New("storage disabled")))
		return
	}
	sourceURL := c.Query("source_url")
	if sourceURL == "" {
		common.WriteError(c, common.NewValidationError("source_url is required"))
		return
	}

	rec, err := h.lookup.GetBySourceURL(c.Request.Context(), sourceURL)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			common.WriteError(c, common.ErrNotFound.Wrap(err))
			return
		}
		common.WriteError(c, toAPIError(err))
		return
	}
	c.JSON(http.StatusOK, rec)
}
