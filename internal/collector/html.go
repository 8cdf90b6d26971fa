package collector

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Link 从 HTML 页面中抽出的一条 (标题, 链接)
type Link struct {
	Title string
	URL   string
}

// Extractor 从页面中提取新闻链接。页面结构变化只会让对应的 Extractor 失效，不影响其它数据源。
type Extractor interface {
	Extract(body []byte, base *url.URL) []Link
}

// NewExtractor 有 pattern 时用正则，否则用 DOM 选择器
func NewExtractor(src config.Source) (Extractor, error) {
	if src.Pattern != "" {
		x, err := NewRegexExtractor(src.Pattern, src.MinTitleLen)
		if err != nil {
			return nil, fmt.Errorf("collector: source %q: bad pattern: %w", src.Name, err)
		}
		return x, nil
	}
	if src.Selector != nil && src.Selector.Item != "" {
		return &SelectorExtractor{Item: src.Selector.Item, Title: src.Selector.Title, Link: src.Selector.Link}, nil
	}
	return nil, fmt.Errorf("collector: source %q: no extractor configured", src.Name)
}

// RegexExtractor 第一个分组为链接，第二个分组为标题
type RegexExtractor struct {
	re          *regexp.Regexp
	minTitleLen int
}

func NewRegexExtractor(pattern string, minTitleLen int) (*RegexExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexExtractor{re: re, minTitleLen: minTitleLen}, nil
}

func (x *RegexExtractor) Extract(body []byte, base *url.URL) []Link {
	seen := make(map[string]bool)
	var out []Link
	for _, m := range x.re.FindAllSubmatch(body, -1) {
		if len(m) < 3 {
			continue
		}
		link := resolveLink(base, string(m[1]))
		title := cleanTitle(string(m[2]))
		if link == "" || seen[link] || !x.acceptTitle(title) {
			continue
		}
		seen[link] = true
		out = append(out, Link{Title: title, URL: link})
	}
	return out
}

func (x *RegexExtractor) acceptTitle(title string) bool {
	if title == "" {
		return false
	}
	return utf8.RuneCountInString(title) >= x.minTitleLen
}

// SelectorExtractor 基于 goquery 的 DOM 选择器提取
type SelectorExtractor struct {
	Item  string
	Title string
	Link  string
}

func (x *SelectorExtractor) Extract(body []byte, base *url.URL) []Link {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []Link
	doc.Find(x.Item).Each(func(_ int, s *goquery.Selection) {
		titleSel := s
		if x.Title != "" {
			titleSel = s.Find(x.Title).First()
		}
		linkSel := s
		if x.Link != "" {
			linkSel = s.Find(x.Link).First()
		}
		href, ok := linkSel.Attr("href")
		if !ok {
			return
		}
		link := resolveLink(base, href)
		title := cleanTitle(titleSel.Text())
		if link == "" || title == "" || seen[link] {
			return
		}
		seen[link] = true
		out = append(out, Link{Title: title, URL: link})
	})
	return out
}

func cleanTitle(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// resolveLink 把站内相对链接补全为绝对地址
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(html.UnescapeString(href))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// PageFetcher 用 colly 抓取页面正文，再交给 Extractor 解析
type PageFetcher struct {
	src       config.Source
	client    *HTTPClient
	extractor Extractor
}

func NewPageFetcher(src config.Source, client *HTTPClient, ex Extractor) *PageFetcher {
	return &PageFetcher{src: src, client: client, extractor: ex}
}

func (p *PageFetcher) Name() string {
	return p.src.Name
}

func (p *PageFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := p.visit(p.src.URL)
	if err != nil {
		return nil, fmt.Errorf("html %s: %w", p.src.Name, err)
	}

	baseRaw := p.src.BaseURL
	if baseRaw == "" {
		baseRaw = p.src.URL
	}
	base, err := url.Parse(baseRaw)
	if err != nil {
		return nil, fmt.Errorf("html %s: bad base url: %w", p.src.Name, err)
	}

	links := p.extractor.Extract(body, base)
	if len(links) == 0 {
		// 页面改版时正则会静默失配，这里至少留一条日志
		log.Printf("html %s: extractor matched 0 links", p.src.Name)
	}

	entries := make([]Entry, 0, len(links))
	for _, l := range links {
		entries = append(entries, Entry{Title: l.Title, Link: l.URL})
	}
	return limitEntries(entries, p.src.EntryLimit()), nil
}

func (p *PageFetcher) visit(pageURL string) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(p.client.UserAgent()),
		colly.MaxBodySize(int(p.client.MaxBody())),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(p.client.Transport())
	c.SetRequestTimeout(p.client.Timeout())
	c.DetectCharset = true

	var (
		body     []byte
		lastErr  error
		attempts int
	)

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		lastErr = err
		attempts++
		// 只对网络错误与 5xx 重试一次
		if attempts <= p.client.retries && (r.StatusCode == 0 || r.StatusCode >= 500) {
			if rerr := r.Request.Retry(); rerr != nil {
				lastErr = rerr
			}
		}
	})

	err := c.Visit(pageURL)
	if body != nil {
		return body, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("empty response from %s", pageURL)
}
