// Package auth 提供注册、登录与会话校验。
// 凭证用 bcrypt 散列，会话是无状态 HS256 JWT：登出由客户端丢弃
// token 完成，服务端不维护黑名单。
package auth
