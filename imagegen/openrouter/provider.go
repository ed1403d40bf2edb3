package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/uzhackedpc333/img37-img-ethancer/imagegen"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/tlsutil"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

const providerName = "openrouter"

// Config OpenRouter 提供者配置。
type Config struct {
	// APIKey 上游凭证，缺失时调用以 CONFIGURATION 失败
	APIKey string
	// BaseURL 基础 URL，默认 https://openrouter.ai/api
	BaseURL string
	// Model 固定模型标识
	Model string
	// Timeout 单次请求超时
	Timeout time.Duration
	// HTTPClient 可选的客户端覆盖，测试用
	HTTPClient *http.Client
}

// Provider 实现 imagegen.Provider。无状态，可并发调用。
type Provider struct {
	cfg    Config
	client *http.Client
}

// New 创建 OpenRouter 图像生成提供者。
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api"
	}
	if cfg.Model == "" {
		cfg.Model = "google/gemini-2.5-flash-image-preview"
	}
	if cfg.Timeout == 0 {
		// 图像模型响应明显慢于文本模型
		cfg.Timeout = 120 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = tlsutil.SecureHTTPClient(cfg.Timeout)
	}

	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return providerName }

// HealthCheck 校验提供者配置是否完整，不发出上游请求。
func (p *Provider) HealthCheck(_ context.Context) error {
	if p.cfg.APIKey == "" {
		return types.NewError(types.ErrConfiguration, "upstream API key is not configured")
	}
	return nil
}

// Generate 发送一次聊天补全请求并提取图像引用。
// 恰好一个上游 HTTP 调用，无重试。
func (p *Provider) Generate(ctx context.Context, req *imagegen.GenerateRequest) (*imagegen.GenerateResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "prompt is required").
			WithHTTPStatus(http.StatusBadRequest)
	}
	if p.cfg.APIKey == "" {
		return nil, types.NewError(types.ErrConfiguration, "upstream API key is not configured").
			WithHTTPStatus(http.StatusInternalServerError)
	}

	body := imagegen.ChatRequest{
		Model:      p.cfg.Model,
		Messages:   []imagegen.ChatMessage{imagegen.BuildUserMessage(req.Prompt, req.EditImageBase64)},
		Modalities: []string{"image", "text"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to encode upstream request").
			WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/chat/completions",
		bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to create upstream request").
			WithCause(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "upstream request failed").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrorMessage(resp.Body)
		return nil, mapUpstreamError(resp.StatusCode, msg)
	}

	var chatResp imagegen.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "failed to decode upstream response").
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway).
			WithProvider(providerName)
	}

	if len(chatResp.Choices) == 0 {
		return nil, types.NewError(types.ErrNoImageProduced, "upstream returned no choices").
			WithHTTPStatus(http.StatusUnprocessableEntity).
			WithProvider(providerName)
	}

	msg := &chatResp.Choices[0].Message
	ref, ok := imagegen.ExtractImageReference(msg)
	if !ok {
		return nil, types.NewError(types.ErrNoImageProduced, "no image could be extracted from the upstream response").
			WithHTTPStatus(http.StatusUnprocessableEntity).
			WithProvider(providerName)
	}

	return &imagegen.GenerateResult{
		ImageReference: ref,
		TextContent:    imagegen.ExtractTextContent(msg),
		Model:          chatResp.Model,
	}, nil
}
