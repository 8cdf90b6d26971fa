package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"unicode"
)

const translateMaxLen = 500

const (
	googleTranslateURL = "https://translate.googleapis.com/translate_a/single"
	myMemoryURL        = "https://api.mymemory.translated.net/get"
)

// Translator 把外文标题翻译为中文；失败时返回原文
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// GoogleTranslator 依次尝试 Google Translate 公开接口 → MyMemory
type GoogleTranslator struct {
	client      *HTTPClient
	googleURL   string
	myMemoryURL string
}

func NewGoogleTranslator(client *HTTPClient) *GoogleTranslator {
	return &GoogleTranslator{
		client:      client,
		googleURL:   googleTranslateURL,
		myMemoryURL: myMemoryURL,
	}
}

func IsMostlyChinese(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	var cjk, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
	}
	if total == 0 {
		return true
	}
	return cjk >= 1 && (cjk*4 >= total || cjk >= 2)
}

func isCJK(r rune) bool {
	if r >= 0x4e00 && r <= 0x9fff {
		return true
	}
	if r >= 0x3400 && r <= 0x4dbf {
		return true
	}
	if r >= 0x3000 && r <= 0x303f {
		return true
	}
	return false
}

func sourceLangForMyMemory(s string) string {
	for _, r := range s {
		if r >= 0x3040 && r <= 0x309f || r >= 0x30a0 && r <= 0x30ff {
			return "ja"
		}
	}
	return "en"
}

func (g *GoogleTranslator) Translate(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || IsMostlyChinese(text) {
		return text
	}
	if rs := []rune(text); len(rs) > translateMaxLen {
		text = string(rs[:translateMaxLen])
	}

	if out, err := g.viaGoogle(ctx, text); err == nil && out != "" {
		return out
	} else if err != nil {
		log.Printf("translate (google-gtx): %v", err)
	}

	if out, err := g.viaMyMemory(ctx, text); err == nil && out != "" {
		return out
	} else if err != nil {
		log.Printf("translate (mymemory): %v", err)
	}

	return text
}

// viaGoogle 使用 client=gtx 公开接口，无需密钥
func (g *GoogleTranslator) viaGoogle(ctx context.Context, text string) (string, error) {
	params := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {"zh-CN"},
		"dt":     {"t"},
		"q":      {text},
	}
	body, err := g.client.Get(ctx, g.googleURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	// 响应格式: [[["翻译文本","原文",...],...],...]
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	outer, ok := raw[0].([]any)
	if !ok {
		return "", nil
	}

	var result strings.Builder
	for _, seg := range outer {
		pair, ok := seg.([]any)
		if !ok || len(pair) < 1 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			result.WriteString(s)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

func (g *GoogleTranslator) viaMyMemory(ctx context.Context, text string) (string, error) {
	params := url.Values{
		"langpair": {sourceLangForMyMemory(text) + "|zh"},
		"q":        {text},
	}
	body, err := g.client.Get(ctx, g.myMemoryURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}
	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText), nil
}
