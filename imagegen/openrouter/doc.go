// Package openrouter 实现基于 OpenRouter 聊天补全 API 的图像生成提供者。
// 每次调用只发一个 HTTP 请求，不做重试；限流与配额信号原样透传给调用方。
package openrouter
