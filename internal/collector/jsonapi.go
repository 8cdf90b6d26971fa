package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/NewsDigest/internal/config"
)

// jsonDecoder 负责一个具体 JSON 接口的抓取与字段映射
type jsonDecoder func(ctx context.Context, client *HTTPClient, src config.Source) ([]Entry, error)

var jsonDecoders = map[string]jsonDecoder{
	"hackernews": fetchHackerNews,
	"reddit":     getAndDecode(decodeReddit),
	"sina_roll":  getAndDecode(decodeSinaRoll),
	"finnhub":    getAndDecode(decodeFinnhub),
}

// JSONFetcher 抓取 JSON 接口类数据源
type JSONFetcher struct {
	src    config.Source
	client *HTTPClient
	decode jsonDecoder
}

func (f *JSONFetcher) Name() string {
	return f.src.Name
}

func (f *JSONFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	entries, err := f.decode(ctx, f.client, f.src)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", f.src.Decoder, f.src.Name, err)
	}
	return limitEntries(entries, f.src.EntryLimit()), nil
}

func getAndDecode(decode func([]byte) ([]Entry, error)) jsonDecoder {
	return func(ctx context.Context, client *HTTPClient, src config.Source) ([]Entry, error) {
		body, err := client.Get(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		return decode(body)
	}
}

// decodeReddit 解析 r/xxx/new.json：data.children[].data
func decodeReddit(body []byte) ([]Entry, error) {
	var payload struct {
		Data struct {
			Children []json.RawMessage `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	entries := make([]Entry, 0, len(payload.Data.Children))
	for _, raw := range payload.Data.Children {
		var child struct {
			Data struct {
				Title       string  `json:"title"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		}
		// 单条格式异常只跳过该条
		if err := json.Unmarshal(raw, &child); err != nil || child.Data.Title == "" {
			continue
		}
		d := child.Data
		e := Entry{
			Title:   html.UnescapeString(d.Title),
			Summary: fmt.Sprintf("⬆️ %d | 💬 %d", d.Score, d.NumComments),
			Extra:   map[string]any{"score": d.Score, "comments": d.NumComments},
		}
		if d.Permalink != "" {
			e.Link = "https://reddit.com" + d.Permalink
		}
		if d.CreatedUTC > 0 {
			e.PublishedAt = time.Unix(int64(d.CreatedUTC), 0)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decodeSinaRoll 解析新浪滚动新闻接口：result.data[]
func decodeSinaRoll(body []byte) ([]Entry, error) {
	var payload struct {
		Result struct {
			Data []json.RawMessage `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode roll: %w", err)
	}

	entries := make([]Entry, 0, len(payload.Result.Data))
	for _, raw := range payload.Result.Data {
		var it struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Intro string `json:"intro"`
			Time  string `json:"time"`
			CTime string `json:"ctime"`
		}
		if err := json.Unmarshal(raw, &it); err != nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		e := Entry{
			Title:     strings.TrimSpace(it.Title),
			Link:      it.URL,
			Summary:   it.Intro,
			Published: it.Time,
		}
		// "2024-02-03 12:34:56" -> "02-03 12:34"
		if rs := []rune(it.Time); len(rs) > 16 {
			e.Time = string(rs[5:16])
		} else if it.Time != "" {
			e.Time = it.Time
		}
		if sec, err := strconv.ParseInt(it.CTime, 10, 64); err == nil && sec > 0 {
			e.PublishedAt = time.Unix(sec, 0)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decodeFinnhub 解析 finnhub /news：[]{headline,url,source,datetime,related,image}
func decodeFinnhub(body []byte) ([]Entry, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}

	entries := make([]Entry, 0, len(list))
	for _, raw := range list {
		var it struct {
			Headline string `json:"headline"`
			URL      string `json:"url"`
			Source   string `json:"source"`
			Summary  string `json:"summary"`
			Datetime int64  `json:"datetime"`
			Related  string `json:"related"`
			Image    string `json:"image"`
		}
		if err := json.Unmarshal(raw, &it); err != nil || it.Headline == "" {
			continue
		}
		summary := it.Summary
		if summary == "" {
			summary = it.Source
		}
		e := Entry{
			Title:   it.Headline,
			Link:    it.URL,
			Summary: summary,
			Image:   it.Image,
			Extra:   map[string]any{"related": it.Related, "publisher": it.Source},
		}
		if it.Datetime > 0 {
			e.PublishedAt = time.Unix(it.Datetime, 0)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
