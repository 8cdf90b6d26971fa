package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveWritesMainAndMirrors(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "data", "news.json")
	mirror := filepath.Join(dir, "frontend", "data.json")
	s := NewStore(main, mirror)

	snap := NewSnapshot([]string{"shanghai", "world"})
	snap["shanghai"] = append(snap["shanghai"], processor.News{
		Title:    "上海 <地铁> & 公交",
		Link:     "https://example.com/?a=1&b=2",
		Summary:  "摘要",
		Source:   "澎湃新闻",
		Time:     "02-03 12:34",
		IsNew:    true,
		Category: "shanghai",
	})
	snap["ai"] = nil
	require.NoError(t, s.Save(snap))

	raw, err := s.ReadRaw()
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, "上海 <地铁> & 公交", "non-ascii and html must stay literal")
	assert.Contains(t, text, "\n  \"shanghai\": [")

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded["shanghai"], 1)
	assert.NotNil(t, decoded["world"])
	assert.Empty(t, decoded["world"])
	assert.NotNil(t, decoded["ai"], "nil slices are written as []")
	rec := decoded["shanghai"][0]
	assert.Nil(t, rec["image"])
	assert.Contains(t, rec, "image")
	assert.NotContains(t, rec, "score")

	mirrored, err := os.ReadFile(mirror)
	require.NoError(t, err)
	assert.Equal(t, raw, mirrored)

	entries, err := os.ReadDir(filepath.Dir(main))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	s := NewStore(path)

	first := NewSnapshot([]string{"world"})
	first["world"] = []processor.News{{Title: "old"}}
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(NewSnapshot([]string{"world"})))

	raw, err := s.ReadRaw()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "old")
}

func TestStoreSaveFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := NewStore(filepath.Join(blocker, "news.json"))
	assert.Error(t, s.Save(NewSnapshot([]string{"world"})))
}

func TestImageCacheUnavailable(t *testing.T) {
	// 未启动 Redis 时读写都只记日志
	c := &ImageCache{Redis: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})}
	defer c.Close()

	c.Set(context.Background(), "k", "v")
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)

	var nilCache *ImageCache
	_, ok = nilCache.Get(context.Background(), "k")
	assert.False(t, ok)
}
