package imagery

import (
	"fmt"
	"hash/fnv"
	"strings"
)

const stockPoolSize = 8

// topicKeywords 按顺序匹配，命中第一个即确定图库主题
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"space", []string{"spacex", "火箭", "发射", "星舰", "rocket", "nasa", "航天"}},
	{"ai", []string{"openai", "gpt", "人工智能", "大模型", "llm", "ai ", "chatgpt", "机器人"}},
	{"finance", []string{"股", "财报", "美股", "stock", "nasdaq", "earnings", "央行", "利率"}},
	{"car", []string{"tesla", "特斯拉", "汽车", "新能源", "电动车"}},
	{"traffic", []string{"地铁", "公交", "交通", "高铁", "机场"}},
	{"health", []string{"医院", "医保", "健康", "疫苗", "养老"}},
	{"weather", []string{"天气", "降温", "台风", "暴雨", "高温"}},
	{"city", []string{"上海", "嘉定", "浦东", "社区", "街道"}},
}

var categoryTopics = map[string]string{
	"shanghai": "city",
	"policy":   "policy",
	"world":    "world",
	"ai":       "ai",
	"stocks":   "finance",
}

// StockImage 从主题图库中按标题哈希挑一张图，同一标题总是得到同一地址，不访问网络
func StockImage(title, category string) string {
	topic := topicFor(title, category)
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	idx := h.Sum32() % stockPoolSize
	return fmt.Sprintf("https://picsum.photos/seed/newsdigest-%s-%d/600/750", topic, idx)
}

func topicFor(title, category string) string {
	lower := strings.ToLower(title + " ")
	for _, t := range topicKeywords {
		for _, k := range t.keywords {
			if strings.Contains(lower, k) {
				return t.topic
			}
		}
	}
	if topic, ok := categoryTopics[category]; ok {
		return topic
	}
	return "news"
}
