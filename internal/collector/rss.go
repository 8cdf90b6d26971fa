package collector

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// RSSFetcher 抓取 RSS / Atom 订阅源
type RSSFetcher struct {
	src    config.Source
	client *HTTPClient
}

func (f *RSSFetcher) Name() string {
	return f.src.Name
}

func (f *RSSFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	body, err := f.client.Get(ctx, f.src.URL)
	if err != nil {
		return nil, fmt.Errorf("rss %s: %w", f.src.Name, err)
	}
	entries, err := ParseFeed(body, f.src.EntryLimit())
	if err != nil {
		return entries, fmt.Errorf("rss %s: %w", f.src.Name, err)
	}
	return entries, nil
}

// ParseFeed 解析 RSS/Atom 字节流，返回前 limit 条。非法 XML 返回空切片和错误，不会 panic。
func ParseFeed(data []byte, limit int) ([]Entry, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return []Entry{}, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		if strings.TrimSpace(it.Title) == "" && strings.TrimSpace(it.Link) == "" {
			log.Printf("rss: skip entry without title and link")
			continue
		}
		e := Entry{
			Title:     it.Title,
			Link:      strings.TrimSpace(it.Link),
			Summary:   it.Description,
			Published: it.Published,
			Image:     itemImage(it),
		}
		if e.Summary == "" {
			e.Summary = it.Content
		}
		if it.PublishedParsed != nil {
			e.PublishedAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			e.PublishedAt = *it.UpdatedParsed
			e.Published = it.Updated
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// itemImage 取条目自带的图片：image 标签优先，其次图片类型的 enclosure，最后是 media:content / media:thumbnail
func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	media := it.Extensions["media"]
	if u := mediaImage(media); u != "" {
		return u
	}
	// media:group 内嵌的 content / thumbnail
	for _, g := range media["group"] {
		if u := mediaImage(g.Children); u != "" {
			return u
		}
	}
	return ""
}

func mediaImage(media map[string][]ext.Extension) string {
	for _, m := range media["content"] {
		u := m.Attrs["url"]
		if u == "" {
			continue
		}
		medium, typ := m.Attrs["medium"], m.Attrs["type"]
		if medium == "image" || strings.HasPrefix(typ, "image/") || (medium == "" && typ == "") {
			return u
		}
	}
	for _, m := range media["thumbnail"] {
		if u := m.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}
