package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LJTian/NewsDigest/internal/collector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: make(map[string]string)} }

func (c *memCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key, val string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = val
}

func newClient(srv *httptest.Server) *collector.HTTPClient {
	return collector.NewHTTPClient(srv.Client(), time.Second, 0)
}

func TestStockImageDeterministic(t *testing.T) {
	title := "SpaceX 星舰最新发射"
	a := StockImage(title, "world")
	b := StockImage(title, "world")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "newsdigest-space-")

	// 未命中关键词时使用分类默认主题
	assert.Contains(t, StockImage("今日要闻", "policy"), "newsdigest-policy-")
	assert.Contains(t, StockImage("today", "unknown"), "newsdigest-news-")
}

func TestStockImageSpreadsAcrossPool(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[StockImage(fmt.Sprintf("标题 %d", i), "world")] = true
	}
	assert.Greater(t, len(seen), 1)
	assert.LessOrEqual(t, len(seen), stockPoolSize)
}

func TestAIURL(t *testing.T) {
	u := AIURL("OpenAI 发布 GPT-5!!", "ai", "")
	parsed, err := url.Parse(u)
	require.NoError(t, err)

	assert.Equal(t, "image.pollinations.ai", parsed.Host)
	assert.True(t, strings.HasPrefix(parsed.Path, "/prompt/人工智能"))
	assert.Contains(t, parsed.Path, "主题：OpenAI 发布 GPT5，")
	assert.Equal(t, "600", parsed.Query().Get("width"))
	assert.Equal(t, "750", parsed.Query().Get("height"))
	assert.Equal(t, "true", parsed.Query().Get("nologo"))
	assert.Empty(t, parsed.Query().Get("token"))
	assert.Equal(t, u, AIURL("OpenAI 发布 GPT-5!!", "ai", ""), "seed must be stable")

	withToken := AIURL("x", "other", "pk_test")
	assert.Contains(t, withToken, "&token=pk_test")
	assert.Contains(t, withToken, url.PathEscape("新闻配图"))
}

func TestScrapeOGAttributeOrders(t *testing.T) {
	pages := map[string]string{
		"/a": `<html><head><meta property="og:image" content="https://cdn.example.com/a.jpg"></head></html>`,
		"/b": `<html><head><META content="//cdn.example.com/b.jpg" property="og:image"></head></html>`,
		"/c": `<html><head><meta name="twitter:image" content="/static/c.png"></head></html>`,
		"/d": `<html><head><title>no image</title></head></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pages[r.URL.Path]))
	}))
	defer srv.Close()

	r := NewResolver(newClient(srv), nil, Options{Strategy: []string{StrategyReal}})
	ctx := context.Background()

	got, err := r.ScrapeOG(ctx, srv.URL+"/a")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", got)

	got, err = r.ScrapeOG(ctx, srv.URL+"/b")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/b.jpg", got)

	got, err = r.ScrapeOG(ctx, srv.URL+"/c")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/static/c.png", got)

	_, err = r.ScrapeOG(ctx, srv.URL+"/d")
	assert.Error(t, err)

	_, err = r.ScrapeOG(ctx, "#")
	assert.Error(t, err)
}

func TestScrapeOGValidatesContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<meta property="og:image" content="/cover.jpg">`))
	})
	mux.HandleFunc("/cover.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(newClient(srv), nil, Options{Strategy: []string{StrategyReal}, Validate: true})
	_, err := r.ScrapeOG(context.Background(), srv.URL+"/article")
	assert.Error(t, err)
}

func TestResolveFallsBackToStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cache := newMemCache()
	r := NewResolver(newClient(srv), cache, Options{Strategy: []string{StrategyReal, StrategyStock}})

	img, ok := r.Resolve(context.Background(), "美股收盘", srv.URL+"/x", "stocks")
	require.True(t, ok)
	assert.Equal(t, StrategyStock, img.Type)
	assert.Equal(t, StockImage("美股收盘", "stocks"), img.URL)
	assert.Len(t, cache.m, 1)
}

func TestResolveUsesCache(t *testing.T) {
	cache := newMemCache()
	cache.Set(context.Background(), cacheKey("t", "https://example.com/1"), "real|https://img.example.com/1.jpg")

	r := NewResolver(collector.NewHTTPClient(nil, time.Second, 0), cache, Options{Strategy: []string{StrategyReal}})
	img, ok := r.Resolve(context.Background(), "t", "https://example.com/1", "world")
	require.True(t, ok)
	assert.Equal(t, Image{URL: "https://img.example.com/1.jpg", Type: StrategyReal}, img)
}

func TestResolveTotalFailure(t *testing.T) {
	r := NewResolver(collector.NewHTTPClient(nil, 200*time.Millisecond, 0), nil, Options{Strategy: []string{StrategyReal}})
	_, ok := r.Resolve(context.Background(), "t", "http://127.0.0.1:1/none", "world")
	assert.False(t, ok)
}
