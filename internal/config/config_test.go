package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestLoadReadsPipelineSettings(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("MIRROR_PATHS", "frontend/data.json, ,data.json")
	t.Setenv("FETCH_TIMEOUT", "7s")
	t.Setenv("WORKERS", "0")
	t.Setenv("IMAGE_STRATEGY", "stock")
	t.Setenv("TRANSLATE", "false")

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if len(cfg.MirrorPaths) != 2 || cfg.MirrorPaths[1] != "data.json" {
		t.Fatalf("MirrorPaths = %v", cfg.MirrorPaths)
	}
	if cfg.FetchTimeout != 7*time.Second {
		t.Fatalf("FetchTimeout = %s", cfg.FetchTimeout)
	}
	// 非法的 worker 数回退到默认池大小
	if cfg.Workers != 5 {
		t.Fatalf("Workers = %d, want 5", cfg.Workers)
	}
	if len(cfg.ImageStrategy) != 1 || cfg.ImageStrategy[0] != "stock" {
		t.Fatalf("ImageStrategy = %v", cfg.ImageStrategy)
	}
	if cfg.Translate {
		t.Fatalf("Translate should be disabled")
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "soon")
	t.Setenv("FETCH_RETRIES", "x")
	t.Setenv("IMAGE_VALIDATE", "maybe")

	cfg := Load()
	if cfg.FetchTimeout != 15*time.Second {
		t.Fatalf("FetchTimeout = %s, want 15s", cfg.FetchTimeout)
	}
	if cfg.FetchRetries != 1 {
		t.Fatalf("FetchRetries = %d, want 1", cfg.FetchRetries)
	}
	if !cfg.ImageValidate {
		t.Fatalf("ImageValidate should keep default true")
	}
}

func TestLoadClampsFetchRetries(t *testing.T) {
	t.Setenv("FETCH_RETRIES", "5")
	if got := Load().FetchRetries; got != 1 {
		t.Fatalf("FetchRetries = %d, want 1", got)
	}

	t.Setenv("FETCH_RETRIES", "-2")
	if got := Load().FetchRetries; got != 0 {
		t.Fatalf("FetchRetries = %d, want 0", got)
	}
}
