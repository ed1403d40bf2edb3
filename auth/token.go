package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uzhackedpc333/img37-img-ethancer/config"
	"github.com/uzhackedpc333/img37-img-ethancer/store"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// Claims JWT 负载。
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager 签发与校验 HS256 会话 token。
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager 创建 token 管理器，密钥缺失是配置错误。
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, types.NewError(types.ErrConfiguration, "JWT secret is not configured").
			WithHTTPStatus(http.StatusInternalServerError)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "imgethancer"
	}

	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: issuer,
	}, nil
}

// Issue 为用户签发会话 token，返回 token 与过期时间。
func (m *TokenManager) Issue(user *store.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, types.NewError(types.ErrInternalError, "failed to sign token").
			WithCause(err)
	}
	return signed, expiresAt, nil
}

// Verify 校验 token 并返回负载。
// 过期、签名不符、算法不符都归为认证失败。
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, types.NewError(types.ErrAuthentication, "invalid or expired session").
			WithHTTPStatus(http.StatusUnauthorized).
			WithCause(err)
	}
	return claims, nil
}
