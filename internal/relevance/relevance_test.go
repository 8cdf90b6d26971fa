package relevance

import (
	"testing"

	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePlaceOnly(t *testing.T) {
	r := Score("嘉定新城建设提速", "")
	assert.True(t, r.Jiading)
	assert.False(t, r.Season)
	assert.False(t, r.Community)
	assert.Equal(t, 3, r.Score)
	assert.Equal(t, "🏠 ", Tags(r))
}

func TestScoreCombinations(t *testing.T) {
	cases := []struct {
		title, summary string
		want           int
	}{
		{"浦东新区发布新规", "", 0},
		{"社区食堂开张", "", 1},
		{"清明假期出行提示", "", 2},
		{"清明将至 社区开展活动", "", 3},
		{"南翔镇便民服务升级", "", 4},
		{"安亭迎来立夏", "", 5},
		{"江桥", "冬至 邻里 互助", 6},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Score(tc.title, tc.summary).Score, tc.title)
	}
}

func TestScoreBoundAndMonotonic(t *testing.T) {
	parts := []string{"嘉定", "白露", "物业"}
	// 枚举三类关键词的全部子集
	results := make(map[int]Result)
	for mask := 0; mask < 8; mask++ {
		text := ""
		for i, p := range parts {
			if mask&(1<<i) != 0 {
				text += p + " "
			}
		}
		r := Score(text, "")
		assert.GreaterOrEqual(t, r.Score, 0)
		assert.LessOrEqual(t, r.Score, 6)
		results[mask] = r
	}
	for a := 0; a < 8; a++ {
		for b := 0; b < 8; b++ {
			if a&b == b {
				assert.GreaterOrEqual(t, results[a].Score, results[b].Score, "mask %03b vs %03b", a, b)
			}
		}
	}
}

func TestApplyAndSortByScore(t *testing.T) {
	records := []processor.News{
		{Title: "浦东新闻一"},
		{Title: "街道环境整治"},
		{Title: "嘉定新城建设提速"},
		{Title: "浦东新闻二"},
		{Title: "马陆镇菜场改造"},
	}
	for i := range records {
		Apply(&records[i])
	}
	SortByScore(records)

	var titles []string
	for _, r := range records {
		require.NotNil(t, r.Score)
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{
		"🏠👥 马陆镇菜场改造",
		"🏠 嘉定新城建设提速",
		"👥 街道环境整治",
		"浦东新闻一",
		"浦东新闻二",
	}, titles)
}

func TestScoreJoinsTitleAndSummaryDirectly(t *testing.T) {
	// 标题与摘要直接拼接，跨越边界的关键词也会命中
	r := Score("建设提速 嘉", "定新城")
	assert.True(t, r.Jiading)
	assert.Equal(t, 3, r.Score)
}
