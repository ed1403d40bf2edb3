package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/uzhackedpc333/img37-img-ethancer/api/handlers"
	"github.com/uzhackedpc333/img37-img-ethancer/auth"
	"github.com/uzhackedpc333/img37-img-ethancer/config"
	"github.com/uzhackedpc333/img37-img-ethancer/imagegen/openrouter"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/database"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/metrics"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/server"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/telemetry"
	"github.com/uzhackedpc333/img37-img-ethancer/store"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 ImgEthancer 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 依赖
	pool          *database.PoolManager
	otelProviders *telemetry.Providers
	authService   *auth.Service

	// Handlers
	healthHandler *handlers.HealthHandler
	authHandler   *handlers.AuthHandler
	imageHandler  *handlers.ImageHandler

	// 指标收集器
	metricsCollector *metrics.Collector
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers, pool *database.PoolManager) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
		pool:          pool,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("imgethancer", nil, s.logger)

	// 2. 初始化 Handlers
	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	// 3. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 4. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() error {
	// 建表（开发环境；生产使用 migrate 子命令）
	if err := store.InitDatabase(s.pool.DB()); err != nil {
		return fmt.Errorf("failed to init database schema: %w", err)
	}

	// 认证服务
	tokens, err := auth.NewTokenManager(s.cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	users := store.NewUserStore(s.pool.DB())
	s.authService = auth.NewService(users, tokens, s.logger)
	s.authHandler = handlers.NewAuthHandler(s.authService, s.metricsCollector, s.logger)

	// 图像生成
	provider := openrouter.New(openrouter.Config{
		APIKey:  s.cfg.Provider.APIKey,
		BaseURL: s.cfg.Provider.BaseURL,
		Model:   s.cfg.Provider.Model,
		Timeout: s.cfg.Provider.Timeout,
	})
	images := store.NewImageStore(s.pool.DB())
	s.imageHandler = handlers.NewImageHandler(provider, images, s.metricsCollector, s.logger)

	// 健康检查
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewDatabaseHealthCheck("database", func(ctx context.Context) error {
		err := s.pool.Ping(ctx)
		stats := s.pool.Stats()
		s.metricsCollector.SetDBConnections(stats.OpenConnections, stats.Idle)
		return err
	}))
	s.healthHandler.RegisterCheck(handlers.NewProviderHealthCheck(provider))

	s.logger.Info("Handlers initialized",
		zap.String("provider", provider.Name()),
		zap.String("model", s.cfg.Provider.Model),
	)
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// 认证路由
	// ========================================
	mux.HandleFunc("POST /api/v1/auth/signup", s.authHandler.HandleSignUp)
	mux.HandleFunc("POST /api/v1/auth/signin", s.authHandler.HandleSignIn)
	mux.HandleFunc("POST /api/v1/auth/signout", s.authHandler.HandleSignOut)
	mux.HandleFunc("GET /api/v1/auth/session", s.authHandler.HandleSession)

	// ========================================
	// 图像路由
	// ========================================
	mux.HandleFunc("POST /api/v1/images/generate", s.imageHandler.HandleGenerate)
	mux.HandleFunc("GET /api/v1/images", s.imageHandler.HandleList)
	mux.HandleFunc("DELETE /api/v1/images/{id}", s.imageHandler.HandleDelete)

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{
		"/health", "/healthz", "/ready", "/readyz", "/version",
		"/api/v1/auth/signup", "/api/v1/auth/signin", "/api/v1/auth/signout",
	}
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		JWTAuth(s.authService, skipAuthPaths, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭数据库连接池
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("Database pool shutdown error", zap.Error(err))
		}
	}

	// 4. 关闭遥测
	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
