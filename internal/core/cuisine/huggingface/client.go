// Package huggingface 透過 Inference API 的 zero-shot 模型分類菜系
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

const providerName = "huggingface"

// 備選項上限
const maxAlternatives = 5

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Client HuggingFace 菜系分類
type Client struct {
	client     *resty.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	throttle   *common.Throttle
	labels     []string
}

// NewClient 創建客戶端，token 可為空（匿名呼叫）
func NewClient(cfg config.HuggingFaceConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}

	return &Client{
		client:     client,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		throttle:   common.NewThrottle(cfg.RateLimit),
		labels:     cuisine.SupportedCuisines,
	}
}

func (c *Client) Name() string {
	return providerName
}

// ClassifyRecipe 分類單筆食譜文字
func (c *Client) ClassifyRecipe(ctx context.Context, text string) (*cuisine.Classification, error) {
	if !cuisine.ValidateRecipeText(text) {
		return nil, cuisine.ErrInvalidRecipeText
	}

	out, err := c.query(ctx, text, c.labels)
	if err != nil {
		return nil, err
	}
	if len(out.Labels) == 0 || len(out.Scores) == 0 {
		return nil, fmt.Errorf("%w: empty labels or scores", cuisine.ErrUnexpectedResponse)
	}

	primary := out.Labels[0]
	var alternatives []cuisine.Alternative
	for i := 1; i < len(out.Labels) && i < len(out.Scores) && len(alternatives) < maxAlternatives; i++ {
		alternatives = append(alternatives, cuisine.Alternative{Cuisine: out.Labels[i], Confidence: out.Scores[i]})
	}

	common.LogDebug("HuggingFace 分類完成",
		zap.String("cuisine", primary),
		zap.Float64("confidence", out.Scores[0]),
	)
	return cuisine.NewClassification(primary, out.Scores[0], alternatives,
		fmt.Sprintf("Classified as %s based on recipe content analysis", primary)), nil
}

func (c *Client) ClassifyBatch(ctx context.Context, texts []string) ([]cuisine.Classification, error) {
	return cuisine.ClassifyEach(ctx, c, texts)
}

// IsReady 送出測試請求確認模型可用
func (c *Client) IsReady(ctx context.Context) bool {
	_, err := c.query(ctx, "test", []string{"Italian", "Chinese"})
	if err != nil {
		common.LogWarn("HuggingFace 不可用", zap.Error(err))
		return false
	}
	return true
}

// query 呼叫模型，503（模型載入中）與 429（限流）以遞增延遲重試
func (c *Client) query(ctx context.Context, text string, labels []string) (*zeroShotResponse, error) {
	body := zeroShotRequest{Inputs: text, Parameters: zeroShotParameters{CandidateLabels: labels}}

	for attempt := 0; ; attempt++ {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			Post("/models/" + c.model)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries {
				common.LogWarn("HuggingFace 請求失敗，重試中", zap.Int("attempt", attempt+1), zap.Error(err), zap.Bool("timeout", isTimeout(err)))
				if err := common.Sleep(ctx, c.retryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: huggingface request failed after %d retries: %v", cuisine.ErrProviderUnavailable, c.maxRetries, err)
		}

		switch resp.StatusCode() {
		case http.StatusOK:
			return decodeResponse(resp.Body())
		case http.StatusServiceUnavailable:
			if attempt < c.maxRetries {
				wait := c.retryDelay * time.Duration(attempt+1)
				common.LogWarn("HuggingFace 模型載入中", zap.Duration("wait", wait))
				if err := common.Sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: model still loading after %d retries", cuisine.ErrProviderUnavailable, c.maxRetries)
		case http.StatusTooManyRequests:
			if attempt < c.maxRetries {
				wait := c.retryDelay * time.Duration(attempt+1) * 2
				common.LogWarn("HuggingFace 限流", zap.Duration("wait", wait))
				if err := common.Sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: rate limited after %d retries", cuisine.ErrProviderUnavailable, c.maxRetries)
		default:
			return nil, fmt.Errorf("huggingface returned status %d: %s", resp.StatusCode(), resp.String())
		}
	}
}

// decodeResponse 回應可能是物件或單元素陣列
func decodeResponse(body []byte) (*zeroShotResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []zeroShotResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", cuisine.ErrUnexpectedResponse, err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: empty list", cuisine.ErrUnexpectedResponse)
		}
		return &list[0], nil
	}

	var out zeroShotResponse
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", cuisine.ErrUnexpectedResponse, err)
	}
	return &out, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
