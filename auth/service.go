package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uzhackedpc333/img37-img-ethancer/store"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// 登录失败统一返回同一条消息，不区分用户不存在与密码错误
const invalidCredentialsMsg = "invalid email or password"

const minPasswordLength = 8

// Session 已登录用户的会话信息。
type Session struct {
	User      *store.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Service 认证服务。
type Service struct {
	users  *store.UserStore
	tokens *TokenManager
	logger *zap.Logger
}

// NewService 创建认证服务。
func NewService(users *store.UserStore, tokens *TokenManager, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With(zap.String("component", "auth")),
	}
}

// SignUp 注册新用户并签发会话。
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, types.NewError(types.ErrInvalidRequest, "a valid email is required").
			WithHTTPStatus(http.StatusBadRequest)
	}
	if len(password) < minPasswordLength {
		return nil, types.NewError(types.ErrInvalidRequest, "password must be at least 8 characters").
			WithHTTPStatus(http.StatusBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to hash password").WithCause(err)
	}

	user := &store.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.newSession(user)
}

// SignIn 校验凭证并签发会话。
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, types.NewError(types.ErrAuthentication, invalidCredentialsMsg).
			WithHTTPStatus(http.StatusUnauthorized)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if types.GetErrorCode(err) == types.ErrNotFound {
			return nil, types.NewError(types.ErrAuthentication, invalidCredentialsMsg).
				WithHTTPStatus(http.StatusUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, types.NewError(types.ErrAuthentication, invalidCredentialsMsg).
			WithHTTPStatus(http.StatusUnauthorized)
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID))
	return s.newSession(user)
}

// Session 按 token 中的用户 ID 返回当前用户。
func (s *Service) Session(ctx context.Context, userID string) (*store.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if types.GetErrorCode(err) == types.ErrNotFound {
			return nil, types.NewError(types.ErrAuthentication, "session user no longer exists").
				WithHTTPStatus(http.StatusUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

// Verify 校验会话 token。
func (s *Service) Verify(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}

func (s *Service) newSession(user *store.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
