package imagegen

import "context"

// Provider 是图像生成上游的抽象。
// 实现必须是无状态的，可被多个请求并发调用；
// 每次调用只发出一个上游 HTTP 请求，不做重试。
type Provider interface {
	// Name 返回提供者标识，用于错误归属和日志
	Name() string

	// Generate 发送一次生成/编辑请求并返回规范化结果。
	// 失败时返回 *types.Error：输入无效为 INVALID_REQUEST，
	// 凭证缺失为 CONFIGURATION，上游 429 为 RATE_LIMITED，
	// 402 为 PAYMENT_REQUIRED，其它非 2xx 为 UPSTREAM_ERROR，
	// 响应中无可提取图像为 NO_IMAGE_PRODUCED。
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// HealthCheck 校验提供者是否可用（不发出上游请求）
	HealthCheck(ctx context.Context) error
}
