package openrouter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// mapUpstreamError 将上游 HTTP 状态码映射为带合适重试标记的 types.Error。
// 429 与 402 必须原样向调用方透传，其余非 2xx 统一归为上游错误。
func mapUpstreamError(status int, msg string) *types.Error {
	switch status {
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).
			WithHTTPStatus(status).
			WithRetryable(true).
			WithProvider(providerName)
	case http.StatusPaymentRequired:
		return types.NewError(types.ErrPaymentRequired, msg).
			WithHTTPStatus(status).
			WithProvider(providerName)
	default:
		return types.NewError(types.ErrUpstreamError,
			fmt.Sprintf("upstream returned status %d: %s", status, msg)).
			WithHTTPStatus(status).
			WithRetryable(status >= 500).
			WithProvider(providerName)
	}
}

// readErrorMessage 读取响应体中的错误消息。
// 尝试解析 JSON 错误响应，失败则回退到原始文本。
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	// 回退到原始文本
	return string(data)
}
