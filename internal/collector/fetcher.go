package collector

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"
)

// PageFetcher 抽象单个页面的抓取，返回原始 HTML
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// CollyFetcher 基于 colly 做一次 GET，不跟随页面内链接
type CollyFetcher struct {
	// Timeout 为单次请求上限，0 表示使用 colly 默认值
	Timeout time.Duration
	// UserAgent 为空时请求不带 User-Agent 头
	UserAgent string
}

func NewPageFetcher(timeout time.Duration, userAgent string) *CollyFetcher {
	return &CollyFetcher{Timeout: timeout, UserAgent: userAgent}
}

// FetchPage 抓取 pageURL 并返回完整响应体（不限制大小）；
// DNS、连接、TLS、超时以及非 2xx 状态都以 error 返回
func (f *CollyFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(0),
	)
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	}

	var body []byte
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return body, nil
}
