// Package imagery 为新闻挑选封面图：真实 og:image、AI 生成图或固定图库。
package imagery

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	"github.com/LJTian/NewsDigest/internal/collector"
)

const (
	StrategyReal  = "real"
	StrategyAI    = "ai"
	StrategyStock = "stock"

	// og:image 一般出现在 <head> 中，前 100KB 足够
	scrapeLimit = 100 * 1024
)

// Image 封面图地址及来源类型
type Image struct {
	URL  string
	Type string
}

// Cache 封面图缓存，key 为标题 + 链接的摘要
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, val string)
}

type Options struct {
	Strategy []string
	// Validate 为 true 时对抓到的图片地址发 HEAD 校验 Content-Type
	Validate bool
	Token    string
}

type Resolver struct {
	client   *collector.HTTPClient
	cache    Cache
	strategy []string
	validate bool
	token    string
}

// NewResolver cache 可为 nil；策略为空时只用固定图库
func NewResolver(client *collector.HTTPClient, cache Cache, opts Options) *Resolver {
	strategy := opts.Strategy
	if len(strategy) == 0 {
		strategy = []string{StrategyStock}
	}
	return &Resolver{
		client:   client,
		cache:    cache,
		strategy: strategy,
		validate: opts.Validate,
		token:    opts.Token,
	}
}

// Resolve 按策略顺序尝试，全部失败返回 false，不会返回错误
func (r *Resolver) Resolve(ctx context.Context, title, link, category string) (Image, bool) {
	key := cacheKey(title, link)
	if r.cache != nil {
		if v, ok := r.cache.Get(ctx, key); ok {
			if img, ok := decodeCached(v); ok {
				return img, true
			}
		}
	}

	for _, s := range r.strategy {
		var img Image
		switch s {
		case StrategyReal:
			u, err := r.ScrapeOG(ctx, link)
			if err != nil {
				log.Printf("imagery: scrape %s: %v", link, err)
				continue
			}
			img = Image{URL: u, Type: StrategyReal}
		case StrategyAI:
			img = Image{URL: AIURL(title, category, r.token), Type: StrategyAI}
		case StrategyStock:
			img = Image{URL: StockImage(title, category), Type: StrategyStock}
		default:
			continue
		}
		if img.URL == "" {
			continue
		}
		if r.cache != nil {
			r.cache.Set(ctx, key, img.Type+"|"+img.URL)
		}
		return img, true
	}
	return Image{}, false
}

var ogPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<meta[^>]*property="og:image"[^>]*content="([^"]+)"`),
	regexp.MustCompile(`(?i)<meta[^>]*content="([^"]+)"[^>]*property="og:image"`),
	regexp.MustCompile(`(?i)<meta[^>]*name="twitter:image"[^>]*content="([^"]+)"`),
	regexp.MustCompile(`(?i)<meta[^>]*property="og:image:url"[^>]*content="([^"]+)"`),
}

// ScrapeOG 读取文章页头部，查找 og:image / twitter:image
func (r *Resolver) ScrapeOG(ctx context.Context, link string) (string, error) {
	page, err := url.Parse(link)
	if err != nil || (page.Scheme != "http" && page.Scheme != "https") {
		return "", fmt.Errorf("not an article url: %q", link)
	}

	body, err := r.client.GetPrefix(ctx, link, scrapeLimit)
	if err != nil {
		return "", err
	}

	for _, re := range ogPatterns {
		m := re.FindSubmatch(body)
		if m == nil {
			continue
		}
		img := absoluteImageURL(page, strings.TrimSpace(string(m[1])))
		if img == "" {
			continue
		}
		if r.validate && !r.isImage(ctx, img) {
			continue
		}
		return img, nil
	}
	return "", fmt.Errorf("no og:image found")
}

func (r *Resolver) isImage(ctx context.Context, img string) bool {
	ct, err := r.client.ContentType(ctx, img)
	if err != nil {
		return false
	}
	return strings.Contains(ct, "image")
}

func absoluteImageURL(page *url.URL, img string) string {
	switch {
	case strings.HasPrefix(img, "//"):
		return "https:" + img
	case strings.HasPrefix(img, "/"):
		return page.Scheme + "://" + page.Host + img
	case strings.HasPrefix(img, "http://"), strings.HasPrefix(img, "https://"):
		return img
	default:
		return ""
	}
}

var categoryPrompts = map[string]string{
	"shanghai": "上海城市风光，现代建筑，暖色调，新闻配图风格，简洁大气",
	"world":    "国际新闻，地球，全球视野，蓝色调，专业新闻配图",
	"ai":       "人工智能，科技感，蓝色紫色渐变，未来感，AI新闻配图",
	"stocks":   "金融股票，上升曲线，金色绿色，商务专业风格",
	"policy":   "中国政府建筑，红色元素，庄重正式，政策新闻配图",
}

const defaultPrompt = "新闻配图，专业摄影风格，高质量"

var promptCleanRe = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s]`)

// AIURL 拼出 Pollinations 生成图地址；同一标题的 seed 固定，便于 CDN 命中
func AIURL(title, category, token string) string {
	base, ok := categoryPrompts[category]
	if !ok {
		base = defaultPrompt
	}
	clean := promptCleanRe.ReplaceAllString(title, "")
	if rs := []rune(clean); len(rs) > 30 {
		clean = string(rs[:30])
	}
	prompt := fmt.Sprintf("%s，主题：%s，专业摄影，高清", base, clean)

	sum := md5.Sum([]byte(title))
	seed := new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), big.NewInt(10000))

	u := fmt.Sprintf("https://image.pollinations.ai/prompt/%s?width=600&height=750&seed=%s&nologo=true",
		url.PathEscape(prompt), seed.String())
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

func cacheKey(title, link string) string {
	sum := md5.Sum([]byte(title + "\n" + link))
	return "newsdigest:image:" + hex.EncodeToString(sum[:])
}

func decodeCached(v string) (Image, bool) {
	typ, u, ok := strings.Cut(v, "|")
	if !ok || u == "" {
		return Image{}, false
	}
	return Image{URL: u, Type: typ}, true
}
