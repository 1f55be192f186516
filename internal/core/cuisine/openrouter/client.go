// Package openrouter 以 OpenRouter 的聊天模型做菜系分類，作為 zero-shot 模型的備援
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

const providerName = "openrouter"

const classifyPrompt = `You are a culinary expert. Classify the cuisine of the recipe below.
Choose only from: %s.
Reply with a single JSON object and nothing else:
{"primary_cuisine": "<cuisine>", "confidence": <0-1>, "alternatives": [{"cuisine": "<cuisine>", "confidence": <0-1>}], "reasoning": "<one sentence>"}

Recipe:
%s`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type classificationPayload struct {
	PrimaryCuisine string                `json:"primary_cuisine"`
	Confidence     float64               `json:"confidence"`
	Alternatives   []cuisine.Alternative `json:"alternatives"`
	Reasoning      string                `json:"reasoning"`
}

// Client OpenRouter 服務
type Client struct {
	cfg    config.OpenRouterConfig
	client *resty.Client
}

// NewClient 創建 OpenRouter 服務
func NewClient(cfg config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://nourishly.app").
		SetHeader("X-Title", "Recipe Ingestor")

	return &Client{
		cfg:    cfg,
		client: client,
	}
}

func (c *Client) Name() string {
	return providerName
}

// GenerateResponse 生成回應
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: openrouter api key not configured", cuisine.ErrProviderUnavailable)
	}

	req := chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: strings.TrimSpace(prompt)}},
		MaxTokens: c.cfg.MaxTokens,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: OpenRouter returned %d", cuisine.ErrProviderUnavailable, resp.StatusCode())
	default:
		return "", fmt.Errorf("OpenRouter API returned error: %s", resp.String())
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in OpenRouter response", cuisine.ErrUnexpectedResponse)
	}

	return result.Choices[0].Message.Content, nil
}

// ClassifyRecipe 要求模型回傳 JSON 分類結果
func (c *Client) ClassifyRecipe(ctx context.Context, text string) (*cuisine.Classification, error) {
	if !cuisine.ValidateRecipeText(text) {
		return nil, cuisine.ErrInvalidRecipeText
	}

	prompt := fmt.Sprintf(classifyPrompt, strings.Join(cuisine.SupportedCuisines, ", "), text)
	content, err := c.GenerateResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload, err := parseClassification(content)
	if err != nil {
		common.LogWarn("OpenRouter 回應無法解析", zap.Error(err), zap.Int("length", len(content)))
		return nil, err
	}

	alternatives := make([]cuisine.Alternative, 0, len(payload.Alternatives))
	for _, alt := range payload.Alternatives {
		alternatives = append(alternatives, cuisine.Alternative{
			Cuisine:    cuisine.NormalizeLabel(alt.Cuisine),
			Confidence: alt.Confidence,
		})
	}

	return cuisine.NewClassification(cuisine.NormalizeLabel(payload.PrimaryCuisine), payload.Confidence, alternatives, payload.Reasoning), nil
}

func (c *Client) ClassifyBatch(ctx context.Context, texts []string) ([]cuisine.Classification, error) {
	return cuisine.ClassifyEach(ctx, c, texts)
}

// IsReady 只檢查是否啟用並設定金鑰，避免消耗額度
func (c *Client) IsReady(context.Context) bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

// parseClassification 從模型輸出中取出 JSON 物件，容忍前後的說明文字與未加引號的鍵
func parseClassification(content string) (*classificationPayload, error) {
	raw, ok := common.ExtractJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model output", cuisine.ErrUnexpectedResponse)
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		if err := json.Unmarshal([]byte(common.QuoteJSONKeys(raw)), &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", cuisine.ErrUnexpectedResponse, err)
		}
	}
	if strings.TrimSpace(payload.PrimaryCuisine) == "" {
		return nil, fmt.Errorf("%w: missing primary_cuisine", cuisine.ErrUnexpectedResponse)
	}
	return &payload, nil
}
