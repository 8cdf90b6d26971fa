package processor

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LJTian/NewsDigest/internal/collector"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/imagery"
)

const (
	defaultSummaryLen = 120
	untitled          = "无标题"
	clickForDetails   = "点击查看详情"
	ellipsis          = "…"
	displayLayout     = "01-02 15:04"
)

// News 是写入 JSON 文件的统一结构
type News struct {
	Title     string  `json:"title"`
	Link      string  `json:"link"`
	Summary   string  `json:"summary"`
	Source    string  `json:"source"`
	Time      string  `json:"time"`
	IsNew     bool    `json:"isNew"`
	Image     *string `json:"image"`
	ImageType *string `json:"imageType"`
	Category  string  `json:"category"`
	// Score 只有开启相关度排序的分类才会写出
	Score *int `json:"score,omitempty"`
}

// SetImage 写入封面图及其来源类型（real / ai / stock）
func (n *News) SetImage(url, kind string) {
	n.Image = &url
	n.ImageType = &kind
}

// Normalizer 把各数据源的原始条目映射为 News
type Normalizer struct {
	translator collector.Translator
	now        func() time.Time
}

// NewNormalizer translator 为 nil 时不翻译
func NewNormalizer(translator collector.Translator) *Normalizer {
	return &Normalizer{translator: translator, now: config.Now}
}

func (n *Normalizer) Normalize(ctx context.Context, cat config.Category, src config.Source, e collector.Entry) News {
	title := strings.TrimSpace(html.UnescapeString(e.Title))
	if title == "" {
		title = untitled
	} else if src.Translate && n.translator != nil {
		title = n.translator.Translate(ctx, title)
	}

	summaryLen := src.SummaryLen
	if summaryLen <= 0 {
		summaryLen = defaultSummaryLen
	}
	summary := Truncate(StripHTML(e.Summary), summaryLen)
	if summary == "" {
		summary = src.Summary
	}
	if summary == "" {
		summary = clickForDetails
	}

	source := e.Source
	if source == "" {
		source = src.Name
	}

	display, fresh := FormatTime(e.Published, e.PublishedAt, n.now())
	if e.Time != "" {
		display = e.Time
	}

	if tags := watchTags(cat.Watchlist, title, e.Extra); tags != "" {
		title = tags + title
	}
	title = src.TitlePrefix + title

	rec := News{
		Title:    title,
		Link:     strings.TrimSpace(e.Link),
		Summary:  summary,
		Source:   source,
		Time:     display,
		IsNew:    fresh,
		Category: cat.Key,
	}
	// 订阅源自带的图片直接作为真实封面
	if img := strings.TrimSpace(e.Image); strings.HasPrefix(img, "http") {
		rec.SetImage(img, imagery.StrategyReal)
	}
	return rec
}

// Placeholder 分类为空时写入的占位条目
func Placeholder(cat config.Category) News {
	return News{
		Title:    "数据加载中...",
		Link:     "#",
		Summary:  clickForDetails,
		Source:   "系统",
		Category: cat.Key,
	}
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// StripHTML 去掉标签、还原实体并合并空白
func StripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Truncate 按 rune 截断，结果（含省略号）不超过 limit；只有发生截断才追加省略号
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	rs := []rune(s)
	return strings.TrimSpace(string(rs[:limit-1])) + ellipsis
}

var knownLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 02 Jan 2006 15:04:05 GMT",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatTime 返回展示用的时间字符串，以及条目是否为 24 小时内的新内容。
// 时间无法解析时视为新内容。
func FormatTime(raw string, at, now time.Time) (string, bool) {
	if at.IsZero() {
		raw = strings.TrimSpace(raw)
		for _, layout := range knownLayouts {
			// 不带时区的格式按本地时间解释
			if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
				at = t
				break
			}
		}
	}
	if !at.IsZero() {
		return at.In(now.Location()).Format(displayLayout), now.Sub(at) < 24*time.Hour
	}
	if raw != "" {
		if rs := []rune(raw); len(rs) > 16 {
			raw = string(rs[:16])
		}
		return raw, true
	}
	return now.Format("01-02"), true
}

// Dedupe 按标题精确去重，保留首次出现的记录并保持顺序
func Dedupe(records []News) []News {
	out := make([]News, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.Title]; ok {
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
	}
	return out
}

// watchTags 标记标题或上游 related 字段中出现的自选股代码，如 "[TSLA,PLTR] "
func watchTags(watchlist []string, title string, extra map[string]any) string {
	if len(watchlist) == 0 {
		return ""
	}
	related, _ := extra["related"].(string)
	upper := strings.ToUpper(title)

	var hits []string
	for _, sym := range watchlist {
		if containsWord(upper, sym) || containsWord(strings.ToUpper(related), sym) {
			hits = append(hits, sym)
		}
	}
	if len(hits) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s] ", strings.Join(hits, ","))
}

func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		if (start == 0 || !isTickerByte(s[start-1])) && (end == len(s) || !isTickerByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isTickerByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
