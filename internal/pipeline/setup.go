package pipeline

import (
	"fmt"
	"net/http"

	"github.com/LJTian/NewsDigest/internal/collector"
	"github.com/LJTian/NewsDigest/internal/config"
	"github.com/LJTian/NewsDigest/internal/imagery"
	"github.com/LJTian/NewsDigest/internal/processor"
	"github.com/LJTian/NewsDigest/internal/storage"
)

// Deps 由运行配置组装出的完整采集链路，cmd/api 与 cmd/collect 共用
type Deps struct {
	Pipeline *Pipeline
	Store    *storage.Store
	cache    *storage.ImageCache
}

// Setup images 为 false 时不配图（也不连接 Redis）
func Setup(cfg *config.Config, reg *config.Registry, images bool) (*Deps, error) {
	transport, err := collector.NewProxyTransport(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	client := collector.NewHTTPClient(&http.Client{Transport: transport}, cfg.FetchTimeout, cfg.FetchRetries)

	var translator collector.Translator
	if cfg.Translate {
		translator = collector.NewGoogleTranslator(client)
	}

	d := &Deps{Store: storage.NewStore(cfg.OutputPath, cfg.MirrorPaths...)}

	var resolver ImageResolver
	if images {
		var cache imagery.Cache
		if cfg.RedisAddr != "" {
			d.cache = storage.NewImageCache(cfg.RedisAddr)
			cache = d.cache
		}
		resolver = imagery.NewResolver(client, cache, imagery.Options{
			Strategy: cfg.ImageStrategy,
			Validate: cfg.ImageValidate,
			Token:    cfg.PollinationsToken,
		})
	}

	d.Pipeline, err = New(reg, client, processor.NewNormalizer(translator), resolver, d.Store, Options{
		Workers:    cfg.Workers,
		ImageLimit: cfg.ImageLimit,
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}
	return d, nil
}

func (d *Deps) Close() {
	if d.cache != nil {
		_ = d.cache.Close()
	}
}
