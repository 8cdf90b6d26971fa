package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/LJTian/NewsDigest/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	data []byte
	err  error
}

func (s stubReader) ReadRaw() ([]byte, error) { return s.data, s.err }

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewsServesFileVerbatim(t *testing.T) {
	body := []byte("{\n  \"world\": [],\n  \"ai\": [{\"title\":\"<b>原文</b>\"}]\n}\n")
	r := NewEngine(NewServer(stubReader{data: body}))

	for _, path := range []string{"/", "/api/v1/news"} {
		w := do(t, r, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, body, w.Body.Bytes())
	}
}

func TestNewsFallbackWhenFileMissing(t *testing.T) {
	store := storage.NewStore(filepath.Join(t.TempDir(), "missing.json"))
	r := NewEngine(NewServer(store))

	w := do(t, r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fallbackNews, w.Body.String())

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	for _, k := range []string{"shanghai", "policy", "world", "ai", "stocks"} {
		assert.Contains(t, doc, k)
	}
	assert.Equal(t, "数据加载中...", doc["shanghai"][0]["title"])
	assert.Equal(t, "系统", doc["shanghai"][0]["source"])
}

func TestNewsFallbackOnReadError(t *testing.T) {
	r := NewEngine(NewServer(stubReader{err: errors.New("permission denied")}))
	w := do(t, r, "/api/v1/news")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fallbackNews, w.Body.String())
}

func TestNewsReadsStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ai":[]}`), 0o644))

	w := do(t, NewEngine(NewServer(storage.NewStore(path))), "/")
	assert.Equal(t, `{"ai":[]}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	w := do(t, NewEngine(NewServer(stubReader{})), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
