package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRunsStaticRegistryToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		OutputPath:   filepath.Join(dir, "news.json"),
		MirrorPaths:  []string{filepath.Join(dir, "frontend", "data.json")},
		FetchTimeout: time.Second,
		Workers:      2,
		ImageLimit:   1,
	}
	reg, err := config.ParseRegistry([]byte(`
categories:
  - key: shanghai
    relevance: true
sources:
  - name: 嘉定精选
    category: shanghai
    kind: static
    items:
      - title: 嘉定新城建设提速
        link: https://example.com/jd
`))
	require.NoError(t, err)

	d, err := Setup(cfg, reg, true)
	require.NoError(t, err)
	defer d.Close()

	snap, err := d.Pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, snap["shanghai"], 1)
	// 没有配置策略时只用固定图库
	require.NotNil(t, snap["shanghai"][0].ImageType)
	assert.Equal(t, "stock", *snap["shanghai"][0].ImageType)

	raw, err := d.Store.ReadRaw()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "🏠 嘉定新城建设提速")
}

func TestSetupRejectsBadProxy(t *testing.T) {
	reg := &config.Registry{Categories: []config.Category{{Key: "ai"}}}
	_, err := Setup(&config.Config{ProxyURL: "::bad"}, reg, false)
	assert.Error(t, err)
}
