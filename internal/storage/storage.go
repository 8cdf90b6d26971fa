package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/LJTian/NewsDigest/internal/processor"
)

// Snapshot 一次采集的完整结果：分类 key -> 新闻列表（永远不为 nil）
type Snapshot map[string][]processor.News

// NewSnapshot 为每个分类预置空列表，保证输出里每个 key 都存在
func NewSnapshot(keys []string) Snapshot {
	s := make(Snapshot, len(keys))
	for _, k := range keys {
		s[k] = []processor.News{}
	}
	return s
}

// Store 把快照整体写入 JSON 文件，并同步到若干镜像路径（前端目录等）
type Store struct {
	Path    string
	Mirrors []string
}

func NewStore(path string, mirrors ...string) *Store {
	return &Store{Path: path, Mirrors: mirrors}
}

// Save 先写临时文件再 rename，写入中途崩溃时旧文件保持完整
func (s *Store) Save(snap Snapshot) error {
	for k, v := range snap {
		if v == nil {
			snap[k] = []processor.News{}
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}
	data := buf.Bytes()

	if err := writeAtomic(s.Path, data); err != nil {
		return err
	}
	for _, m := range s.Mirrors {
		if m == "" || m == s.Path {
			continue
		}
		// 镜像失败不影响主文件
		if err := writeAtomic(m, data); err != nil {
			log.Printf("storage: mirror %s: %v", m, err)
		}
	}

	total := 0
	for _, v := range snap {
		total += len(v)
	}
	log.Printf("storage: saved %d items in %d categories to %s", total, len(snap), s.Path)
	return nil
}

// ReadRaw 返回主文件原始字节
func (s *Store) ReadRaw() ([]byte, error) {
	return os.ReadFile(s.Path)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename to %s: %w", path, err)
	}
	return nil
}
