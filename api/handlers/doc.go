/*
Package handlers 提供 ImgEthancer HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 ImgEthancer 所有 HTTP 端点的请求处理逻辑，
包括图像生成、记录列表与删除、用户认证、健康检查以及统一的
响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - ImageHandler    — 图像生成、记录列表与删除（owner 级隔离）
  - AuthHandler     — 注册、登录、登出与会话查询
  - HealthHandler   — 服务健康检查（/health, /ready, /version）
  - Response        — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo       — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter  — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck     — 可插拔健康检查接口

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（20 MB 限制 + 严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 上游 429/402 原样透传，生成失败不落库
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
