// Package relevance 对本地新闻做关键词相关度打分，只用于排序。
package relevance

import (
	"sort"
	"strings"

	"github.com/LJTian/NewsDigest/internal/processor"
)

var (
	placeKeywords = []string{
		"嘉定", "南翔", "江桥", "安亭", "马陆", "外冈", "徐行", "华亭",
		"菊园", "新成路", "真新", "嘉定新城", "嘉定工业区", "州桥", "法华塔",
	}
	seasonKeywords = []string{
		"立春", "雨水", "惊蛰", "春分", "清明", "谷雨",
		"立夏", "小满", "芒种", "夏至", "小暑", "大暑",
		"立秋", "处暑", "白露", "秋分", "寒露", "霜降",
		"立冬", "小雪", "大雪", "冬至", "小寒", "大寒",
	}
	communityKeywords = []string{
		"社区", "街道", "居委会", "业委会", "物业", "邻里", "便民", "为老",
		"养老", "托育", "菜场", "旧改", "加装电梯", "长护险", "医保",
	}
)

// Result 每一项命中为 0/1，Score = 3*地名 + 2*节气 + 1*民生，取值 0..6
type Result struct {
	Jiading   bool
	Season    bool
	Community bool
	Score     int
}

func Score(title, summary string) Result {
	text := strings.ToLower(title + summary)

	r := Result{
		Jiading:   containsAny(text, placeKeywords),
		Season:    containsAny(text, seasonKeywords),
		Community: containsAny(text, communityKeywords),
	}
	if r.Jiading {
		r.Score += 3
	}
	if r.Season {
		r.Score += 2
	}
	if r.Community {
		r.Score++
	}
	return r
}

// Tags 返回标题前缀：🏠 地名、🌸 节气、👥 民生
func Tags(r Result) string {
	var b strings.Builder
	if r.Jiading {
		b.WriteString("🏠")
	}
	if r.Season {
		b.WriteString("🌸")
	}
	if r.Community {
		b.WriteString("👥")
	}
	if b.Len() == 0 {
		return ""
	}
	b.WriteString(" ")
	return b.String()
}

// Apply 为记录写入分数并在标题前加标签
func Apply(n *processor.News) {
	r := Score(n.Title, n.Summary)
	score := r.Score
	n.Score = &score
	n.Title = Tags(r) + n.Title
}

// SortByScore 按分数降序，同分保持原有顺序
func SortByScore(records []processor.News) {
	sort.SliceStable(records, func(i, j int) bool {
		return scoreOf(records[i]) > scoreOf(records[j])
	})
}

func scoreOf(n processor.News) int {
	if n.Score == nil {
		return 0
	}
	return *n.Score
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
