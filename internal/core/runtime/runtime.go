package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nest_go/internal/core/logger"
	"nest_go/internal/service"
)

// Runtime 运行时预热状态
// 启动时把默认站点的版块与标签灌进站点缓存，首批请求不打库
type Runtime struct {
	mu         sync.RWMutex
	categories int
	tags       int
	loadedAt   time.Time
}

var rt *Runtime
var once sync.Once

// Config Runtime 配置
type Config struct {
	SiteID      int64
	CategorySvc *service.CategoryService
	TagSvc      *service.TagService
}

// Init 初始化 Runtime 并预热默认站点
func Init(cfg *Config) error {
	var initErr error
	once.Do(func() {
		rt = &Runtime{}
		initErr = rt.warmup(cfg)
	})
	return initErr
}

// Get 获取 Runtime 实例
func Get() *Runtime {
	return rt
}

// warmup 预热默认站点缓存
func (r *Runtime) warmup(cfg *Config) error {
	ctx := context.Background()
	start := time.Now()

	logger.Info("runtime warmup started", logger.Int64("site_id", cfg.SiteID))

	if cfg.CategorySvc != nil {
		cats, err := cfg.CategorySvc.GetAll(ctx, cfg.SiteID)
		if err != nil {
			logger.Error("warmup categories failed", logger.String("error", err.Error()))
		} else {
			r.mu.Lock()
			r.categories = len(cats)
			r.mu.Unlock()
			logger.Info("warmup categories", logger.Int("count", len(cats)))
		}
	}

	if cfg.TagSvc != nil {
		tags, err := cfg.TagSvc.GetAll(ctx, cfg.SiteID)
		if err != nil {
			logger.Error("warmup tags failed", logger.String("error", err.Error()))
		} else {
			r.mu.Lock()
			r.tags = len(tags)
			r.mu.Unlock()
			logger.Info("warmup tags", logger.Int("count", len(tags)))
		}
	}

	r.mu.Lock()
	r.loadedAt = time.Now()
	r.mu.Unlock()

	logger.Info("runtime warmup finished",
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Status 预热状态摘要
func (r *Runtime) Status() map[string]interface{} {
	if r == nil {
		return map[string]interface{}{"warmed": false}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]interface{}{
		"warmed":     !r.loadedAt.IsZero(),
		"categories": r.categories,
		"tags":       r.tags,
		"loaded_at":  r.loadedAt.Unix(),
	}
}

// WarmUpLog 预热摘要（供启动日志与根路径展示）
func WarmUpLog() string {
	if rt == nil {
		return "not warmed"
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return fmt.Sprintf("categories=%d tags=%d", rt.categories, rt.tags)
}
