// =============================================================================
// 📦 ImgEthancer 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Database:  DefaultDatabaseConfig(),
		Provider:  DefaultProviderConfig(),
		Auth:      DefaultAuthConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:     8080,
		MetricsPort:  9091,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		// "*" 允许任意来源，生产环境应收紧为具体域名
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    15 * time.Second,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "imgethancer",
		Password:        "",
		Name:            "imgethancer",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultProviderConfig 返回默认上游配置
// 图像模型的写超时明显长于普通聊天模型
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		APIKey:  "",
		BaseURL: "https://openrouter.ai/api",
		Model:   "google/gemini-2.5-flash-image-preview",
		Timeout: 120 * time.Second,
	}
}

// DefaultAuthConfig 返回默认认证配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: "",
		TokenTTL:  24 * time.Hour,
		Issuer:    "imgethancer",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "imgethancer",
		SampleRate:   1.0,
	}
}
