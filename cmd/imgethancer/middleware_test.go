package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/uzhackedpc333/img37-img-ethancer/api/handlers"
	"github.com/uzhackedpc333/img37-img-ethancer/auth"
	"github.com/uzhackedpc333/img37-img-ethancer/config"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/metrics"
	"github.com/uzhackedpc333/img37-img-ethancer/store"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// =============================================================================
// 🧪 中间件测试
// =============================================================================

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mk("first"), mk("second"), mk("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates new ID", func(t *testing.T) {
		var gotID string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID, _ = types.RequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, gotID)
		assert.Equal(t, gotID, w.Header().Get("X-Request-ID"))
	})

	t.Run("preserves client ID", func(t *testing.T) {
		h := RequestID()(okHandler())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "client-id-42")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "client-id-42", w.Header().Get("X-Request-ID"))
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeaders()(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCORSMiddleware(t *testing.T) {
	allowed := []string{"https://app.example.com"}

	t.Run("allowed origin gets headers", func(t *testing.T) {
		h := CORS(allowed)(okHandler())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin gets no headers", func(t *testing.T) {
		h := CORS(allowed)(okHandler())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		h := CORS(allowed)(okHandler())

		r := httptest.NewRequest(http.MethodOptions, "/api/v1/images", nil)
		r.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		h := CORS([]string{"*"})(okHandler())

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://anything.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "https://anything.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from disallowed origin rejected", func(t *testing.T) {
		h := CORS(allowed)(okHandler())

		r := httptest.NewRequest(http.MethodOptions, "/api/v1/images", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOTelTracingMiddleware(t *testing.T) {
	// 未安装 SDK 时全局 tracer 是 noop，中间件必须透传请求
	h := OTelTracing()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/images", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/api/v1/images", want: "/api/v1/images"},
		{path: "/api/v1/images/generate", want: "/api/v1/images/generate"},
		{path: "/api/v1/images/550e8400-e29b-41d4-a716-446655440000", want: "/api/v1/images/:id"},
		{path: "/api/v1/images/12345", want: "/api/v1/images/:id"},
		{path: "/health", want: "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.path))
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	collector := metrics.NewCollector("test_mw", prometheus.NewRegistry(), zap.NewNop())
	h := MetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/images", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
}

// =============================================================================
// 🔐 JWT 认证中间件测试
// =============================================================================

func setupAuthService(t *testing.T) *auth.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.InitDatabase(db))

	tokens, err := auth.NewTokenManager(config.AuthConfig{JWTSecret: "test-secret"})
	require.NoError(t, err)

	return auth.NewService(store.NewUserStore(db), tokens, zap.NewNop())
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := setupAuthService(t)
	session, err := svc.SignUp(context.Background(), "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	skipPaths := []string{"/health"}

	t.Run("skip path bypasses auth", func(t *testing.T) {
		h := JWTAuth(svc, skipPaths, zap.NewNop())(okHandler())

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		h := JWTAuth(svc, skipPaths, zap.NewNop())(okHandler())

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/images", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		// 认证失败响应必须与 handlers 的统一信封一致
		var resp handlers.Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(types.ErrAuthentication), resp.Error.Code)
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		h := JWTAuth(svc, skipPaths, zap.NewNop())(okHandler())

		r := httptest.NewRequest(http.MethodGet, "/api/v1/images", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token injects identity", func(t *testing.T) {
		var gotUserID, gotEmail string
		h := JWTAuth(svc, skipPaths, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, _ = types.UserID(r.Context())
			gotEmail, _ = types.UserEmail(r.Context())
		}))

		r := httptest.NewRequest(http.MethodGet, "/api/v1/images", nil)
		r.Header.Set("Authorization", "Bearer "+session.Token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, session.User.ID, gotUserID)
		assert.Equal(t, "alice@example.com", gotEmail)
	})
}
