package collector

import (
	"context"

	"github.com/LJTian/NewsDigest/internal/config"
)

// StaticFetcher 返回配置中手动维护的精选条目，不访问网络
type StaticFetcher struct {
	src config.Source
}

func NewStaticFetcher(src config.Source) *StaticFetcher {
	return &StaticFetcher{src: src}
}

func (s *StaticFetcher) Name() string {
	return s.src.Name
}

func (s *StaticFetcher) Fetch(context.Context) ([]Entry, error) {
	return StaticEntries(s.src.Items), nil
}

// StaticEntries 将手动条目转换为 Entry；分类兜底条目也走这里
func StaticEntries(items []config.StaticItem) []Entry {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		out = append(out, Entry{
			Title:   it.Title,
			Link:    it.Link,
			Summary: it.Summary,
			Source:  it.Source,
			Time:    it.Time,
		})
	}
	return out
}
