package collector

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// Keyword 为 href 的过滤关键字，区分大小写的子串匹配
	Keyword = "climate"

	fallbackTitle = "Title not available"
)

// Extract 按文档顺序扫描所有 <a>，保留 href 含关键字的链接。
// 解析失败时返回空结果，不返回错误。
func Extract(doc []byte, src Source) []Article {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return []Article{}
	}

	results := make([]Article, 0)
	d.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if !strings.Contains(href, Keyword) {
			return
		}

		results = append(results, Article{
			Source: src.Name,
			Title:  anchorTitle(a),
			URL:    absoluteURL(href, src.BaseURL),
		})
	})

	return results
}

// anchorTitle: aria-label → 去空白后的文本 → 固定兜底文案
func anchorTitle(a *goquery.Selection) string {
	if label, ok := a.Attr("aria-label"); ok && label != "" {
		return label
	}
	if text := strings.TrimSpace(a.Text()); text != "" {
		return text
	}
	return fallbackTitle
}

// absoluteURL 只做前缀拼接，不处理 ../、查询串或 // 开头的地址
func absoluteURL(href, base string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}
