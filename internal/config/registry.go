package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_sources.yaml
var defaultSourcesFS embed.FS

// ErrInvalidSource 表示数据源配置不合法
var ErrInvalidSource = errors.New("invalid source")

// Kind 决定使用哪一种解析策略
type Kind string

const (
	KindRSS    Kind = "rss"
	KindJSON   Kind = "json"
	KindHTML   Kind = "html"
	KindStatic Kind = "static"
)

// JSONDecoders 为已实现的 JSON 接口解码器
var JSONDecoders = map[string]bool{
	"hackernews": true,
	"reddit":     true,
	"sina_roll":  true,
	"finnhub":    true,
}

// Selector 为 HTML 数据源的 DOM 选择器
type Selector struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Link  string `yaml:"link"`
}

// StaticItem 手动维护的条目（精选 / 兜底）
type StaticItem struct {
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Summary string `yaml:"summary"`
	Source  string `yaml:"source"`
	Time    string `yaml:"time"`
}

// Source 描述一个上游数据源
type Source struct {
	Name        string       `yaml:"name"`
	Category    string       `yaml:"category"`
	Kind        Kind         `yaml:"kind"`
	URL         string       `yaml:"url"`
	Limit       int          `yaml:"limit"`
	SummaryLen  int          `yaml:"summary_len"`
	Summary     string       `yaml:"summary"`
	TitlePrefix string       `yaml:"title_prefix"`
	Translate   bool         `yaml:"translate"`
	Decoder     string       `yaml:"decoder"`
	Pattern     string       `yaml:"pattern"`
	BaseURL     string       `yaml:"base_url"`
	MinTitleLen int          `yaml:"min_title_len"`
	Selector    *Selector    `yaml:"selector,omitempty"`
	Items       []StaticItem `yaml:"items,omitempty"`
}

// EntryLimit 返回单个数据源保留的条目数，默认 10
func (s Source) EntryLimit() int {
	if s.Limit <= 0 {
		return 10
	}
	return s.Limit
}

// Category 一个主题分类
type Category struct {
	Key         string       `yaml:"key"`
	Name        string       `yaml:"name"`
	Limit       int          `yaml:"limit"`
	Relevance   bool         `yaml:"relevance"`
	Placeholder bool         `yaml:"placeholder"`
	MinItems    int          `yaml:"min_items"`
	Backfill    []StaticItem `yaml:"backfill,omitempty"`
	Watchlist   []string     `yaml:"watchlist,omitempty"`
}

// Registry 分类 + 数据源的静态配置，进程启动时加载一次
type Registry struct {
	Categories []Category `yaml:"categories"`
	Sources    []Source   `yaml:"sources"`
}

// Category 按 key 查找分类
func (r *Registry) Category(key string) (Category, bool) {
	for _, c := range r.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// SourcesFor 返回某分类下的数据源（按注册顺序）
func (r *Registry) SourcesFor(category string) []Source {
	var out []Source
	for _, s := range r.Sources {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// CategoryKeys 返回全部分类 key（按声明顺序）
func (r *Registry) CategoryKeys() []string {
	keys := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		keys = append(keys, c.Key)
	}
	return keys
}

func DefaultRegistryPath() string {
	return filepath.Join(xdg.ConfigHome, "newsdigest", "sources.yaml")
}

// LoadRegistry 读取数据源配置。path 为空时先找 XDG 配置目录，不存在则使用内置默认配置；
// 显式指定的 path 不存在时返回错误。
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error

	switch {
	case path != "":
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read sources %s: %w", path, err)
		}
	default:
		data, err = os.ReadFile(DefaultRegistryPath())
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read sources: %w", err)
			}
			data, err = defaultSourcesFS.ReadFile("default_sources.yaml")
			if err != nil {
				return nil, fmt.Errorf("config: read embedded sources: %w", err)
			}
			path = "embedded"
		} else {
			path = DefaultRegistryPath()
		}
	}

	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry 解析并校验 YAML 配置
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if err := validate(&reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func validate(reg *Registry) error {
	if len(reg.Categories) == 0 {
		return fmt.Errorf("%w: no categories declared", ErrInvalidSource)
	}
	cats := make(map[string]bool, len(reg.Categories))
	for i, c := range reg.Categories {
		if c.Key == "" {
			return fmt.Errorf("%w: category %d: key is required", ErrInvalidSource, i)
		}
		if cats[c.Key] {
			return fmt.Errorf("%w: category %q declared twice", ErrInvalidSource, c.Key)
		}
		cats[c.Key] = true
	}

	for i, s := range reg.Sources {
		if s.Name == "" {
			return fmt.Errorf("%w: source %d: name is required", ErrInvalidSource, i)
		}
		if !cats[s.Category] {
			return fmt.Errorf("%w: source %q: unknown category %q", ErrInvalidSource, s.Name, s.Category)
		}
		if s.Kind == KindStatic {
			if len(s.Items) == 0 {
				return fmt.Errorf("%w: source %q: static source has no items", ErrInvalidSource, s.Name)
			}
			continue
		}
		u, err := url.Parse(s.URL)
		if err != nil || s.URL == "" {
			return fmt.Errorf("%w: source %q: invalid url %q", ErrInvalidSource, s.Name, s.URL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: source %q: url scheme must be http or https, got %q", ErrInvalidSource, s.Name, u.Scheme)
		}
		switch s.Kind {
		case KindRSS:
		case KindJSON:
			if !JSONDecoders[s.Decoder] {
				return fmt.Errorf("%w: source %q: unknown decoder %q", ErrInvalidSource, s.Name, s.Decoder)
			}
		case KindHTML:
			if s.Pattern == "" && (s.Selector == nil || s.Selector.Item == "") {
				return fmt.Errorf("%w: source %q: html source needs pattern or selector", ErrInvalidSource, s.Name)
			}
			if s.Pattern != "" {
				re, err := regexp.Compile(s.Pattern)
				if err != nil {
					return fmt.Errorf("%w: source %q: bad pattern: %v", ErrInvalidSource, s.Name, err)
				}
				if re.NumSubexp() < 2 {
					return fmt.Errorf("%w: source %q: pattern needs (link, title) groups", ErrInvalidSource, s.Name)
				}
			}
		default:
			return fmt.Errorf("%w: source %q: unknown kind %q (valid: rss, json, html, static)", ErrInvalidSource, s.Name, s.Kind)
		}
	}
	return nil
}
