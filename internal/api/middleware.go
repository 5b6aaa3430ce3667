package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/LJTian/ClimateNewsHub/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	apiKeyHeader    = "x-rapidapi-proxy-secret"
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 64
)

// APIKeyMiddleware 校验 x-rapidapi-proxy-secret；/health 与 /metrics 免校验。
// 未配置密钥时所有请求都会被拒绝。
func APIKeyMiddleware(secret string) gin.HandlerFunc {
	want := []byte(secret)

	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/metrics":
			c.Next()
			return
		}

		got := c.GetHeader(apiKeyHeader)
		if got == "" || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// RequestLogger 为每个请求生成/透传 X-Request-ID，并在请求结束后记录一条访问日志
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Header(requestIDHeader, reqID)

		c.Next()

		fields := []logger.Field{
			logger.String("request_id", reqID),
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// NewRouter 组装 gin 引擎：recovery → 访问日志 → API key → 业务路由
func NewRouter(s *Server, apiKey string, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(APIKeyMiddleware(apiKey))
	s.RegisterRoutes(r)
	return r
}
