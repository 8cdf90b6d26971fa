package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/LJTian/NewsDigest/internal/config"
)

// Entry 解析后的原始条目，只在采集到规范化之间短暂存在
type Entry struct {
	Title   string
	Link    string
	Summary string
	// Published 为上游原始时间字符串；PublishedAt 解析成功时非零
	Published   string
	PublishedAt time.Time
	// Time 上游已给出的展示时间，优先于 Published
	Time string
	// Source 覆盖数据源名称（手动精选条目使用）
	Source string
	Image  string
	Extra  map[string]any
}

// Fetcher 抽象每一个数据源：一次 Fetch = 一次抓取 + 解析
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Entry, error)
}

// Build 按数据源类型选择对应的解析策略
func Build(src config.Source, client *HTTPClient) (Fetcher, error) {
	switch src.Kind {
	case config.KindRSS:
		return &RSSFetcher{src: src, client: client}, nil
	case config.KindJSON:
		dec, ok := jsonDecoders[src.Decoder]
		if !ok {
			return nil, fmt.Errorf("collector: source %q: unknown decoder %q", src.Name, src.Decoder)
		}
		return &JSONFetcher{src: src, client: client, decode: dec}, nil
	case config.KindHTML:
		ex, err := NewExtractor(src)
		if err != nil {
			return nil, err
		}
		return NewPageFetcher(src, client, ex), nil
	case config.KindStatic:
		return NewStaticFetcher(src), nil
	default:
		return nil, fmt.Errorf("collector: source %q: unknown kind %q", src.Name, src.Kind)
	}
}

func limitEntries(entries []Entry, n int) []Entry {
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}
