package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LJTian/ClimateNewsHub/internal/collector"
	"github.com/LJTian/ClimateNewsHub/internal/logger"
	"github.com/LJTian/ClimateNewsHub/internal/metrics"
)

// Result 为单个新闻源的抓取结果：要么是文章列表，要么是失败原因
type Result struct {
	Source   string
	Articles []collector.Article
	Err      error
}

// OK 表示抓取成功（文章可能为 0 条）
func (r Result) OK() bool {
	return r.Err == nil
}

// Items 在失败时返回空切片，调用方无需再判断错误
func (r Result) Items() []collector.Article {
	if r.Err != nil || r.Articles == nil {
		return []collector.Article{}
	}
	return r.Articles
}

// Aggregator 对注册表中的新闻源执行抓取 + 抽取，并发合并结果
type Aggregator struct {
	registry *collector.Registry
	fetcher  collector.PageFetcher
	log      logger.Logger
	metrics  *metrics.Metrics
}

// New 构造 Aggregator；m 可以为 nil
func New(registry *collector.Registry, fetcher collector.PageFetcher, log logger.Logger, m *metrics.Metrics) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{
		registry: registry,
		fetcher:  fetcher,
		log:      log,
		metrics:  m,
	}
}

// Run 抓取单个新闻源，失败以 Result.Err 返回；抓取或抽取中的 panic 同样转为失败结果
func (a *Aggregator) Run(ctx context.Context, src collector.Source) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("aggregator: source %s panicked: %v", src.Name, p)
			a.log.Error("panic while scraping source",
				logger.String("source", src.Name),
				logger.Error(err),
			)
			a.metrics.ObserveFetch(src.Name, time.Since(start), 0, err)
			res = Result{Source: src.Name, Err: err}
		}
	}()

	return a.run(ctx, src, start)
}

func (a *Aggregator) run(ctx context.Context, src collector.Source, start time.Time) Result {
	body, err := a.fetcher.FetchPage(ctx, src.EntryURL)
	if err != nil {
		ferr := &collector.FetchError{Source: src.Name, URL: src.EntryURL, Err: err}
		a.log.Warn("error scraping source",
			logger.String("source", src.Name),
			logger.String("url", src.EntryURL),
			logger.Error(err),
		)
		a.metrics.ObserveFetch(src.Name, time.Since(start), 0, ferr)
		return Result{Source: src.Name, Err: ferr}
	}

	articles := collector.Extract(body, src)
	a.metrics.ObserveFetch(src.Name, time.Since(start), len(articles), nil)
	a.log.Debug("source scraped",
		logger.String("source", src.Name),
		logger.Int("articles", len(articles)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return Result{Source: src.Name, Articles: articles}
}

// FetchFromSource 抓取单个新闻源；失败时返回空列表
func (a *Aggregator) FetchFromSource(ctx context.Context, src collector.Source) []collector.Article {
	return a.Run(ctx, src).Items()
}

// RunAll 并发抓取全部新闻源，等待全部完成后返回，每个源独占一个结果槽位
func (a *Aggregator) RunAll(ctx context.Context) []Result {
	sources := a.registry.All()
	results := make([]Result, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.Run(ctx, src)
		}()
	}
	wg.Wait()

	return results
}

// Merge 按槽位顺序拼接各源文章，失败的源贡献 0 条
func Merge(results []Result) []collector.Article {
	total := 0
	for _, r := range results {
		total += len(r.Items())
	}

	out := make([]collector.Article, 0, total)
	for _, r := range results {
		out = append(out, r.Items()...)
	}
	return out
}

// AllOK 表示所有源都抓取成功
func AllOK(results []Result) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// FetchAll 合并所有新闻源的文章；失败的源贡献 0 条，源之间的先后顺序不做保证
func (a *Aggregator) FetchAll(ctx context.Context) []collector.Article {
	results := a.RunAll(ctx)
	out := Merge(results)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	a.log.Info("collect done (all sources)",
		logger.Int("sources", len(results)),
		logger.Int("failed", failed),
		logger.Int("articles", len(out)),
	)
	return out
}
