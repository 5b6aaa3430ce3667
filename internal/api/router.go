package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/LJTian/ClimateNewsHub/internal/aggregator"
	"github.com/LJTian/ClimateNewsHub/internal/collector"
	"github.com/LJTian/ClimateNewsHub/internal/logger"
	"github.com/LJTian/ClimateNewsHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const welcomeMessage = "Welcome to Climate Change News Scraper API"

// NewsCollector 为路由层依赖的抓取能力，失败体现在 Result 中而不是 error
type NewsCollector interface {
	RunAll(ctx context.Context) []aggregator.Result
	Run(ctx context.Context, src collector.Source) aggregator.Result
}

type Server struct {
	registry  *collector.Registry
	collector NewsCollector
	cache     *storage.Cache
	log       logger.Logger
	gatherer  prometheus.Gatherer
}

// NewServer 构造路由；cache 为 nil 时每次请求都重新抓取，gatherer 为 nil 时使用默认 registry
func NewServer(registry *collector.Registry, nc NewsCollector, cache *storage.Cache, log logger.Logger, gatherer prometheus.Gatherer) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		registry:  registry,
		collector: nc,
		cache:     cache,
		log:       log,
		gatherer:  gatherer,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	r.GET("/", s.welcome)
	r.GET("/news", s.listNews)
	r.GET("/news/:sourceId", s.listSourceNews)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, welcomeMessage)
}

func (s *Server) listNews(c *gin.Context) {
	ctx := c.Request.Context()
	items := s.cached(ctx, storage.AllKey(), func() []aggregator.Result {
		return s.collector.RunAll(ctx)
	})
	c.JSON(http.StatusOK, items)
}

func (s *Server) listSourceNews(c *gin.Context) {
	src, err := s.registry.Find(c.Param("sourceId"))
	if errors.Is(err, collector.ErrSourceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Newspaper not found"})
		return
	}

	ctx := c.Request.Context()
	items := s.cached(ctx, storage.SourceKey(src.Name), func() []aggregator.Result {
		return []aggregator.Result{s.collector.Run(ctx, src)}
	})
	c.JSON(http.StatusOK, items)
}

// cached 先查缓存，未命中时调用 fetch；只有全部源成功时才回写，缓存故障只记录日志
func (s *Server) cached(ctx context.Context, key string, fetch func() []aggregator.Result) []collector.Article {
	if items, ok, err := s.cache.GetArticles(ctx, key); err != nil {
		s.log.Warn("cache get failed", logger.String("key", key), logger.Error(err))
	} else if ok {
		return items
	}

	results := fetch()
	items := aggregator.Merge(results)
	if !aggregator.AllOK(results) {
		return items
	}
	if err := s.cache.SetArticles(ctx, key, items); err != nil {
		s.log.Warn("cache set failed", logger.String("key", key), logger.Error(err))
	}
	return items
}
