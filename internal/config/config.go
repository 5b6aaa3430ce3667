package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	// APIKey 与请求头 x-rapidapi-proxy-secret 比对
	APIKey string

	LogLevel string
	GinMode  string

	FetchTimeout time.Duration
	UserAgent    string

	// RedisAddr 为空时不启用缓存
	RedisAddr string
	CacheTTL  time.Duration
}

// Load 读取环境变量（当前目录存在 .env 时先加载，已有环境变量优先）
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:   getEnv("PORT", "8000"),
		APIKey:    getEnv("RAPIDAPI_KEY", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		GinMode:   getEnv("GIN_MODE", "release"),
		UserAgent: getEnv("USER_AGENT", ""),
		RedisAddr: getEnv("REDIS_ADDR", ""),
	}

	port, err := strconv.Atoi(cfg.AppPort)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be a number in 1..65535, got %q", cfg.AppPort)
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", cfg.GinMode)
	}

	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisAddr != "" && cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive when REDIS_ADDR is set")
	}

	return cfg, nil
}

// CacheEnabled 是否启用 Redis 缓存
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
