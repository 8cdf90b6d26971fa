package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/NewsDigest/internal/config"
)

const (
	hnDefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	hnConcurrency    = 5
)

type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
}

// fetchHackerNews 两段式抓取：先取 topstories id 列表，再并发拉取每个 item 详情
func fetchHackerNews(ctx context.Context, client *HTTPClient, src config.Source) ([]Entry, error) {
	base := strings.TrimRight(src.URL, "/")
	if base == "" {
		base = hnDefaultBaseURL
	}

	body, err := client.Get(ctx, base+"/topstories.json")
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal top stories: %w", err)
	}

	if limit := src.EntryLimit(); len(ids) > limit {
		ids = ids[:limit]
	}

	type indexedItem struct {
		idx  int
		item hnItem
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		sem   = make(chan struct{}, hnConcurrency)
		items = make([]indexedItem, 0, len(ids))
	)

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx, id int) {
			defer wg.Done()
			defer func() { <-sem }()

			it, err := fetchHNItem(ctx, client, base, id)
			if err != nil {
				log.Printf("hackernews: fetch item %d: %v", id, err)
				return
			}
			if it.Title == "" {
				return
			}

			mu.Lock()
			items = append(items, indexedItem{idx: idx, item: it})
			mu.Unlock()
		}(i, id)
	}
	wg.Wait()

	// 按 topstories 中的排名输出
	sort.Slice(items, func(i, j int) bool { return items[i].idx < items[j].idx })

	results := make([]Entry, 0, len(items))
	for _, ii := range items {
		it := ii.item

		itemURL := it.URL
		if itemURL == "" {
			itemURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		}

		e := Entry{
			Title:   it.Title,
			Link:    itemURL,
			Summary: fmt.Sprintf("⭐ %d points", it.Score),
			Extra: map[string]any{
				"hn_id":    it.ID,
				"author":   it.By,
				"comments": it.Descendants,
				"score":    it.Score,
				"rank":     ii.idx + 1,
			},
		}
		if it.Time > 0 {
			e.PublishedAt = time.Unix(it.Time, 0)
		}
		results = append(results, e)
	}

	if len(results) == 0 {
		log.Println("hackernews: no items fetched")
	}
	return results, nil
}

func fetchHNItem(ctx context.Context, client *HTTPClient, base string, id int) (hnItem, error) {
	body, err := client.Get(ctx, fmt.Sprintf("%s/item/%d.json", base, id))
	if err != nil {
		return hnItem{}, err
	}
	var it hnItem
	if err := json.Unmarshal(body, &it); err != nil {
		return hnItem{}, err
	}
	return it, nil
}
