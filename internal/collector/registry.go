package collector

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrSourceNotFound 表示注册表中不存在该新闻源
var ErrSourceNotFound = errors.New("newspaper not found")

// Source 描述一个新闻源：入口页面以及相对链接的拼接前缀
type Source struct {
	Name     string
	EntryURL string
	BaseURL  string
}

// DefaultSources 为服务启动时使用的新闻源列表，顺序即输出顺序
var DefaultSources = []Source{
	{Name: "cityam", EntryURL: "https://www.cityam.com/london-must-become-a-world-leader-on-climate-change-action/", BaseURL: "https://www.cityam.com"},
	{Name: "thetimes", EntryURL: "https://www.thetimes.co.uk/environment/climate-change", BaseURL: "https://www.thetimes.co.uk"},
	{Name: "guardian", EntryURL: "https://www.theguardian.com/environment/climate-crisis", BaseURL: "https://www.theguardian.com"},
	{Name: "telegraph", EntryURL: "https://www.telegraph.co.uk/climate-change", BaseURL: "https://www.telegraph.co.uk"},
	{Name: "nyt", EntryURL: "https://www.nytimes.com/international/section/climate", BaseURL: "https://www.nytimes.com"},
	{Name: "latimes", EntryURL: "https://www.latimes.com/environment", BaseURL: "https://www.latimes.com"},
	{Name: "smh", EntryURL: "https://www.smh.com.au/environment/climate-change", BaseURL: "https://www.smh.com.au"},
	{Name: "es", EntryURL: "https://www.standard.co.uk/topic/climate-change", BaseURL: "https://www.standard.co.uk"},
	{Name: "sun", EntryURL: "https://www.thesun.co.uk/topic/climate-change-environment/", BaseURL: "https://www.thesun.co.uk"},
	{Name: "dm", EntryURL: "https://www.dailymail.co.uk/news/climate_change_global_warming/index.html", BaseURL: "https://www.dailymail.co.uk"},
	{Name: "nyp", EntryURL: "https://nypost.com/tag/climate-change/", BaseURL: "https://nypost.com"},
}

// Registry 是启动时构造的只读新闻源列表
type Registry struct {
	sources []Source
}

// NewRegistry 校验名称唯一、URL 为绝对地址后构造注册表
func NewRegistry(sources []Source) (*Registry, error) {
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))

	for _, s := range sources {
		if s.Name == "" {
			return nil, errors.New("registry: source name is empty")
		}
		if s.Name != strings.ToLower(s.Name) {
			return nil, fmt.Errorf("registry: source name %q must be lowercase", s.Name)
		}
		if _, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("registry: duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if err := checkAbsoluteURL(s.EntryURL); err != nil {
			return nil, fmt.Errorf("registry: source %q entry url: %w", s.Name, err)
		}
		if err := checkAbsoluteURL(s.BaseURL); err != nil {
			return nil, fmt.Errorf("registry: source %q base url: %w", s.Name, err)
		}
		out = append(out, s)
	}

	return &Registry{sources: out}, nil
}

// MustRegistry 与 NewRegistry 相同，但在配置错误时 panic，仅用于静态列表
func MustRegistry(sources []Source) *Registry {
	r, err := NewRegistry(sources)
	if err != nil {
		panic(err)
	}
	return r
}

// All 返回全部新闻源的副本
func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Find 按名称查找（大小写不敏感）
func (r *Registry) Find(name string) (Source, error) {
	name = strings.ToLower(name)
	for _, s := range r.sources {
		if s.Name == name {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
}

func checkAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", raw)
	}
	return nil
}
