package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxBodyBytes = 2 << 20 // 2MB
	defaultTimeout      = 15 * time.Second
)

// ErrStatus 上游返回了非 2xx 状态码
var ErrStatus = errors.New("unexpected status")

// HTTPClient 是所有出站请求的唯一入口：统一设置浏览器 UA、单次请求超时与最多一次重试。
// 代理通过注入的 http.Client / Transport 实现，测试中可替换为内存 Transport。
type HTTPClient struct {
	client    *http.Client
	timeout   time.Duration
	retries   int
	userAgent string
	maxBody   int64
}

// NewHTTPClient client 为 nil 时使用默认 Transport；retries 为额外重试次数
func NewHTTPClient(client *http.Client, timeout time.Duration, retries int) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &HTTPClient{
		client:    client,
		timeout:   timeout,
		retries:   retries,
		userAgent: defaultUserAgent,
		maxBody:   defaultMaxBodyBytes,
	}
}

// NewProxyTransport 返回经由固定正向代理的 Transport；proxyURL 为空时直连
func NewProxyTransport(proxyURL string) (http.RoundTripper, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		tr.Proxy = nil
		return tr, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("collector: invalid proxy url %q", proxyURL)
	}
	tr.Proxy = http.ProxyURL(u)
	return tr, nil
}

// Transport 供 colly 等需要 RoundTripper 的组件复用同一出口
func (c *HTTPClient) Transport() http.RoundTripper {
	if c.client.Transport != nil {
		return c.client.Transport
	}
	return http.DefaultTransport
}

func (c *HTTPClient) Timeout() time.Duration { return c.timeout }

func (c *HTTPClient) UserAgent() string { return c.userAgent }

func (c *HTTPClient) MaxBody() int64 { return c.maxBody }

// Get 读取完整响应体（上限 2MB）
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.GetPrefix(ctx, rawURL, c.maxBody)
}

// GetPrefix 只读取响应体的前 n 字节，用于抓取页面 meta 等只需要头部内容的场景
func (c *HTTPClient) GetPrefix(ctx context.Context, rawURL string, n int64) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		body, retry, err := c.getOnce(ctx, rawURL, n)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		if attempt < c.retries {
			log.Printf("retry %s: %v", rawURL, err)
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) getOnce(ctx context.Context, rawURL string, n int64) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("collector: build request %s: %w", rawURL, err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("collector: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode >= 500, fmt.Errorf("collector: get %s: %w %d", rawURL, ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, n))
	if err != nil {
		return nil, true, fmt.Errorf("collector: read %s: %w", rawURL, err)
	}
	return body, false, nil
}

// ContentType 发送 HEAD 请求并返回 Content-Type（跟随重定向）
func (c *HTTPClient) ContentType(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("collector: build request %s: %w", rawURL, err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("collector: head %s: %w", rawURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("collector: head %s: %w %d", rawURL, ErrStatus, resp.StatusCode)
	}
	return strings.ToLower(resp.Header.Get("Content-Type")), nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
}
