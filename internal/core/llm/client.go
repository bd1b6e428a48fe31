package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"ingredient-engine/internal/infrastructure/config"
	"ingredient-engine/internal/pkg/common"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Client OpenRouter 相容的對話模型客戶端，提供名稱正規化與營養素估算
type Client struct {
	cfg    config.NormalizerConfig
	client *resty.Client
}

// NewClient 創建模型客戶端
func NewClient(cfg config.NormalizerConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://ingredient-engine.local").
		SetHeader("X-Title", "Ingredient Engine")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		cfg:    cfg,
		client: client,
	}
}

// message 對話訊息
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest 請求結構
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// chatResponse 響應結構
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete 發送單輪對話，返回第一個選項的內容
func (c *Client) complete(ctx context.Context, purpose, system, prompt string) (content string, err error) {
	start := time.Now()
	defer func() {
		common.LogAICall(purpose, time.Since(start), err, common.RequestIDFromContext(ctx))
	}()

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.cfg.MaxTokens,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", common.Wrap(common.ErrAIServiceError, fmt.Errorf("failed to send request: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogDebug("模型 API 錯誤回應", zap.String("raw_response", resp.String()))
		return "", common.Wrap(common.ErrAIServiceError, fmt.Errorf("API returned status %d", resp.StatusCode()))
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", common.Wrap(common.ErrAIServiceError, fmt.Errorf("failed to parse response: %w", err))
	}
	if len(result.Choices) == 0 {
		return "", common.Wrap(common.ErrAIServiceError, fmt.Errorf("no choices in response"))
	}

	return result.Choices[0].Message.Content, nil
}

const normalizeSystemPrompt = "You normalize grocery ingredient names. " +
	"Reply with the singular, lowercase, generic name of the ingredient a shopper would buy. " +
	"Drop brands, quantities, units and preparation words. Reply with the name only."

// NormalizeName 將食材名稱正規化為通用名稱
func (c *Client) NormalizeName(ctx context.Context, rawName string) (string, error) {
	content, err := c.complete(ctx, "normalize_name", normalizeSystemPrompt, strings.TrimSpace(rawName))
	if err != nil {
		return "", err
	}
	return cleanName(content), nil
}

// cleanName 取第一行並去除引號與句點
func cleanName(content string) string {
	content = strings.TrimSpace(content)
	if i := strings.IndexAny(content, "\r\n"); i >= 0 {
		content = content[:i]
	}
	content = strings.Trim(content, " \t\"'`.")
	return strings.ToLower(content)
}

const macrosSystemPrompt = "You estimate macronutrients for recipe ingredients. " +
	`Reply with JSON only: {"ingredients":[{"name":"...","protein_g":0,"fat_g":0,"carbs_g":0,"skipped":false}]}. ` +
	"Use the ingredient names exactly as given, in the same order. " +
	"Set skipped to true when an ingredient cannot be estimated."

// EstimateMacros 估算每個食材的營養素，返回模型輸出中的 JSON 文件
func (c *Client) EstimateMacros(ctx context.Context, names []string) ([]byte, error) {
	list, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal names: %w", err)
	}

	content, err := c.complete(ctx, "estimate_macros", macrosSystemPrompt, string(list))
	if err != nil {
		return nil, err
	}
	return []byte(common.ExtractJSON(content)), nil
}
