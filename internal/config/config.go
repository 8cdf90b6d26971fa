package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppPort string

	// OutputPath 为主输出文件；MirrorPaths 为额外拷贝位置（前端目录等）
	OutputPath  string
	MirrorPaths []string
	SourcesFile string

	ProxyURL     string
	FetchTimeout time.Duration
	FetchRetries int
	Workers      int

	RedisAddr string
	CronSpec  string

	// 封面图策略，按顺序尝试：real / ai / stock
	ImageStrategy     []string
	ImageLimit        int
	ImageValidate     bool
	PollinationsToken string

	Translate bool
}

func Load() *Config {
	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "9000"),
		OutputPath:        getEnv("OUTPUT_PATH", "data/news.json"),
		MirrorPaths:       splitList(getEnv("MIRROR_PATHS", "")),
		SourcesFile:       getEnv("SOURCES_FILE", ""),
		ProxyURL:          getEnv("HTTP_PROXY_URL", ""),
		FetchTimeout:      getDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchRetries:      getInt("FETCH_RETRIES", 1),
		Workers:           getInt("WORKERS", 5),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		CronSpec:          getEnv("CRON_SPEC", "*/5 * * * *"),
		ImageStrategy:     splitList(getEnv("IMAGE_STRATEGY", "real,stock")),
		ImageLimit:        getInt("IMAGE_LIMIT", 3),
		ImageValidate:     getBool("IMAGE_VALIDATE", true),
		PollinationsToken: getEnv("POLLINATIONS_TOKEN", ""),
		Translate:         getBool("TRANSLATE", true),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	// 最多重试一次
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 0
	} else if cfg.FetchRetries > 1 {
		cfg.FetchRetries = 1
	}

	log.Printf("config loaded: port=%s output=%s workers=%d cron=%s proxy=%t",
		cfg.AppPort, cfg.OutputPath, cfg.Workers, cfg.CronSpec, cfg.ProxyURL != "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("warn: invalid %s=%q, use default %d", key, v, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("warn: invalid %s=%q, use default %t", key, v, def)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		log.Printf("warn: invalid %s=%q, use default %s", key, v, def)
		return def
	}
	return d
}

// splitList 按逗号拆分，忽略空项
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
