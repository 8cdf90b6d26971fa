// Package pipeline 把 抓取 → 解析 → 规范化 → 去重 → 配图 → 保存 串成一轮采集。
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/LJTian/NewsDigest/internal/collector"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/imagery"
	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/LJTian/NewsDigest/internal/relevance"
	"github.com/LJTian/NewsDigest/internal/storage"
)

const (
	defaultWorkers      = 5
	defaultImageWorkers = 5
)

// Sink 保存一轮采集的结果
type Sink interface {
	Save(snap storage.Snapshot) error
}

// ImageResolver 为单条新闻挑选封面图，失败返回 false
type ImageResolver interface {
	Resolve(ctx context.Context, title, link, category string) (imagery.Image, bool)
}

type Options struct {
	Workers      int
	ImageWorkers int
	// ImageLimit 每个分类只为前 N 条配图，0 表示不配图
	ImageLimit int
	// Ordered 为 true 时按数据源注册顺序输出，否则按抓取完成顺序
	Ordered bool
}

type task struct {
	order   int
	cat     config.Category
	src     config.Source
	fetcher collector.Fetcher
}

type result struct {
	order    int
	category string
	records  []processor.News
}

type Pipeline struct {
	registry   *config.Registry
	tasks      []task
	normalizer *processor.Normalizer
	images     ImageResolver
	sink       Sink
	opts       Options
}

// New 为每个 (分类, 数据源) 构建一个抓取任务；images 为 nil 时跳过配图
func New(reg *config.Registry, client *collector.HTTPClient, normalizer *processor.Normalizer,
	images ImageResolver, sink Sink, opts Options) (*Pipeline, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ImageWorkers <= 0 {
		opts.ImageWorkers = defaultImageWorkers
	}

	var tasks []task
	for _, cat := range reg.Categories {
		for _, src := range reg.SourcesFor(cat.Key) {
			f, err := collector.Build(src, client)
			if err != nil {
				return nil, fmt.Errorf("pipeline: %w", err)
			}
			tasks = append(tasks, task{order: len(tasks), cat: cat, src: src, fetcher: f})
		}
	}

	return &Pipeline{
		registry:   reg,
		tasks:      tasks,
		normalizer: normalizer,
		images:     images,
		sink:       sink,
		opts:       opts,
	}, nil
}

// Run 执行一轮完整采集。单个数据源失败只记日志，只有保存失败才返回错误。
func (p *Pipeline) Run(ctx context.Context) (storage.Snapshot, error) {
	start := time.Now()
	log.Printf("pipeline: start, %d sources, %d workers", len(p.tasks), p.opts.Workers)

	jobs := make(chan task)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results <- p.runTask(ctx, t)
			}
		}()
	}
	go func() {
		for _, t := range p.tasks {
			jobs <- t
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// 只有当前 goroutine 写 collected，无需加锁
	collected := make(map[string][]result)
	for r := range results {
		collected[r.category] = append(collected[r.category], r)
	}

	snap := storage.NewSnapshot(p.registry.CategoryKeys())
	for _, cat := range p.registry.Categories {
		rs := collected[cat.Key]
		if p.opts.Ordered {
			sort.SliceStable(rs, func(i, j int) bool { return rs[i].order < rs[j].order })
		}
		var records []processor.News
		for _, r := range rs {
			records = append(records, r.records...)
		}
		snap[cat.Key] = p.finalize(ctx, cat, records)
	}

	if p.images != nil && p.opts.ImageLimit > 0 {
		p.attachImages(ctx, snap)
	}

	if err := p.sink.Save(snap); err != nil {
		return snap, fmt.Errorf("pipeline: save: %w", err)
	}

	total := 0
	for _, v := range snap {
		total += len(v)
	}
	log.Printf("pipeline: done, %d items in %s", total, time.Since(start).Round(time.Millisecond))
	return snap, nil
}

// runTask 抓取 + 解析 + 规范化；任何错误或 panic 都只让该数据源贡献 0 条
func (p *Pipeline) runTask(ctx context.Context, t task) (res result) {
	res = result{order: t.order, category: t.cat.Key}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: %s/%s panic: %v", t.cat.Key, t.src.Name, r)
			res.records = nil
		}
	}()

	entries, err := t.fetcher.Fetch(ctx)
	if err != nil {
		log.Printf("pipeline: fetch %s/%s error: %v", t.cat.Key, t.src.Name, err)
		return res
	}
	if len(entries) == 0 {
		log.Printf("pipeline: fetch %s/%s got 0 items", t.cat.Key, t.src.Name)
		return res
	}

	res.records = make([]processor.News, 0, len(entries))
	for _, e := range entries {
		res.records = append(res.records, p.normalizer.Normalize(ctx, t.cat, t.src, e))
	}
	log.Printf("pipeline: %s/%s fetched=%d", t.cat.Key, t.src.Name, len(res.records))
	return res
}

// finalize 去重、相关度排序、截断、兜底补充与占位
func (p *Pipeline) finalize(ctx context.Context, cat config.Category, records []processor.News) []processor.News {
	records = processor.Dedupe(records)

	if cat.Relevance {
		for i := range records {
			relevance.Apply(&records[i])
		}
		relevance.SortByScore(records)
	}

	if cat.Limit > 0 && len(records) > cat.Limit {
		records = records[:cat.Limit]
	}

	if cat.MinItems > 0 && len(records) < cat.MinItems && len(cat.Backfill) > 0 {
		log.Printf("pipeline: %s has %d items, backfill %d", cat.Key, len(records), len(cat.Backfill))
		// 兜底条目不打自选股标签
		plain := config.Category{Key: cat.Key, Name: cat.Name}
		src := config.Source{Name: cat.Name, Category: cat.Key, Kind: config.KindStatic}
		for _, e := range collector.StaticEntries(cat.Backfill) {
			records = append(records, p.normalizer.Normalize(ctx, plain, src, e))
		}
		records = processor.Dedupe(records)
	}

	if len(records) == 0 && cat.Placeholder {
		records = []processor.News{processor.Placeholder(cat)}
	}
	return records
}

// attachImages 用一个独立的有界协程池为每个分类前 ImageLimit 条配图
func (p *Pipeline) attachImages(ctx context.Context, snap storage.Snapshot) {
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.opts.ImageWorkers)
	)

	for _, key := range p.registry.CategoryKeys() {
		records := snap[key]
		for i := 0; i < len(records) && i < p.opts.ImageLimit; i++ {
			rec := &records[i]
			if rec.Image != nil || rec.Link == "#" {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			// 每个协程只写自己那一条记录
			go func(rec *processor.News) {
				defer wg.Done()
				defer func() { <-sem }()
				if img, ok := p.images.Resolve(ctx, rec.Title, rec.Link, rec.Category); ok {
					rec.SetImage(img.URL, img.Type)
				}
			}(rec)
		}
	}
	wg.Wait()
}
