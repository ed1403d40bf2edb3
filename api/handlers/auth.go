package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/uzhackedpc333/img37-img-ethancer/auth"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/metrics"
	"github.com/uzhackedpc333/img37-img-ethancer/store"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// =============================================================================
// 🔐 认证接口 Handler
// =============================================================================

// AuthHandler 认证接口处理器
type AuthHandler struct {
	auth    *auth.Service
	metrics *metrics.Collector
	logger  *zap.Logger
}

// SignUpRequest 注册请求
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// SignInRequest 登录请求
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInfo API 返回的用户信息
type UserInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionInfo 会话响应
type SessionInfo struct {
	User      UserInfo  `json:"user"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authSvc *auth.Service, collector *metrics.Collector, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    authSvc,
		metrics: collector,
		logger:  logger,
	}
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleSignUp 处理用户注册
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req SignUpRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	session, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.recordAttempt("signup", "failure")
		handleServiceError(w, err, h.logger)
		return
	}

	h.recordAttempt("signup", "success")
	WriteSuccess(w, toSessionInfo(session))
}

// HandleSignIn 处理用户登录
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req SignInRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordAttempt("signin", "failure")
		handleServiceError(w, err, h.logger)
		return
	}

	h.recordAttempt("signin", "success")
	WriteSuccess(w, toSessionInfo(session))
}

// HandleSignOut 处理登出。
// Token 是无状态 JWT，服务端没有会话可销毁，客户端丢弃 token 即可。
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{"status": "signed out"})
}

// HandleSession 返回当前已认证用户
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := types.UserID(r.Context())
	if !ok {
		WriteError(w, types.NewError(types.ErrUnauthorized, "authentication required").
			WithHTTPStatus(http.StatusUnauthorized), h.logger)
		return
	}

	user, err := h.auth.Session(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	WriteSuccess(w, SessionInfo{User: toUserInfo(user)})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func (h *AuthHandler) recordAttempt(operation, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordAuthAttempt(operation, outcome)
	}
}

func toUserInfo(user *store.User) UserInfo {
	return UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
}

func toSessionInfo(session *auth.Session) SessionInfo {
	return SessionInfo{
		User:      toUserInfo(session.User),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}
}
