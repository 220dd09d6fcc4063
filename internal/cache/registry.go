package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nest_go/internal/core/config"
	"nest_go/internal/core/logger"
	"nest_go/internal/pkg/pool"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Kind 缓存实体类别
type Kind string

// 实体类别
const (
	KindThread     Kind = "thread"
	KindPost       Kind = "post"
	KindTag        Kind = "tag"
	KindGroupPerm  Kind = "gperm"  // gid -> 权限集合
	KindUserGroup  Kind = "ugroup" // uid -> gid
	KindUser       Kind = "user"
	KindCategory   Kind = "cat"
	KindThreadTags Kind = "ttags" // tid -> 绑定的 tag_id 列表
)

// Site 单站点缓存束：L1 bigcache + L2 redis + singleflight
// 站点之间完全隔离，key 统一带 s{sid}: 前缀
type Site struct {
	sid int64
	l1  *pool.BigCache
	l2  *redis.Client
	sf  *singleflight.Group
	ttl time.Duration
}

func (s *Site) key(kind Kind, id string) string {
	return fmt.Sprintf("s%d:%s:%s", s.sid, kind, id)
}

// GetBytes 读缓存：先 L1，miss 再 L2 并回填 L1
// L1 命中不挂起；L2 失败视为 miss，由上层决定是否回源
func (s *Site) GetBytes(ctx context.Context, kind Kind, id string) ([]byte, bool) {
	key := s.key(kind, id)

	// L1 Cache
	if s.l1 != nil {
		if data, ok := s.l1.Get(key); ok && data != nil {
			return data, true
		}
	}

	// L2 Cache
	if s.l2 != nil {
		if data, err := s.l2.Get(ctx, key).Bytes(); err == nil {
			if s.l1 != nil {
				s.l1.Set(key, data)
			}
			return data, true
		}
	}

	return nil, false
}

// SetBytes 写缓存（L1 + L2）
func (s *Site) SetBytes(ctx context.Context, kind Kind, id string, data []byte) {
	key := s.key(kind, id)
	if s.l1 != nil {
		s.l1.Set(key, data)
	}
	if s.l2 != nil {
		s.l2.Set(ctx, key, data, s.ttl)
	}
}

// Remove 点失效：写库方在写调用返回前同步调用
// 之后的任何读（包括跨挂起点的）都不会再看到旧值
func (s *Site) Remove(ctx context.Context, kind Kind, id string) {
	key := s.key(kind, id)
	if s.l1 != nil {
		s.l1.Remove(key)
	}
	if s.l2 != nil {
		s.l2.Del(ctx, key)
	}
}

// GetJSON 读缓存并反序列化
func (s *Site) GetJSON(ctx context.Context, kind Kind, id string, dest interface{}) bool {
	data, ok := s.GetBytes(ctx, kind, id)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// 脏数据按 miss 处理并清掉
		s.Remove(ctx, kind, id)
		return false
	}
	return true
}

// SetJSON 序列化后写缓存
func (s *Site) SetJSON(ctx context.Context, kind Kind, id string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("cache marshal failed",
			logger.String("kind", string(kind)),
			logger.String("id", id),
			logger.String("error", err.Error()))
		return
	}
	s.SetBytes(ctx, kind, id, data)
}

// Do 回源合并：同一 key 的并发 miss 只打一次库
func (s *Site) Do(kind Kind, id string, fn func() (interface{}, error)) (interface{}, error) {
	v, err, _ := s.sf.Do(s.key(kind, id), fn)
	return v, err
}

// Flush 清空整站缓存
// 批量写（bulk update/delete）影响行集合未知时必须整站失效，
// 用更大的缓存抖动换正确性
func (s *Site) Flush(ctx context.Context) error {
	if s.l1 != nil {
		s.l1.Flush()
	}
	if s.l2 == nil {
		return nil
	}

	pattern := fmt.Sprintf("s%d:*", s.sid)
	iter := s.l2.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		if err := s.l2.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Registry 站点缓存注册表
// 显式传递的 站点id -> 缓存束 映射，站点内按实体类别分键
type Registry struct {
	mu    sync.RWMutex
	sites map[int64]*Site
	l2    *redis.Client
	cfg   *config.CacheConfig
}

// NewRegistry 创建注册表
func NewRegistry(l2 *redis.Client, cfg *config.CacheConfig) *Registry {
	return &Registry{
		sites: make(map[int64]*Site),
		l2:    l2,
		cfg:   cfg,
	}
}

// Site 获取站点缓存束（按需创建）
func (r *Registry) Site(sid int64) *Site {
	r.mu.RLock()
	s, ok := r.sites[sid]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sites[sid]; ok {
		return s
	}

	ttl := time.Duration(r.cfg.L2TTL) * time.Second
	l1, err := pool.NewBigCache(r.cfg.L1Cap, ttl)
	if err != nil {
		logger.Error("create site l1 cache failed",
			logger.Int64("site_id", sid),
			logger.String("error", err.Error()))
		l1 = nil
	}
	s = &Site{
		sid: sid,
		l1:  l1,
		l2:  r.l2,
		sf:  &singleflight.Group{},
		ttl: ttl,
	}
	r.sites[sid] = s
	return s
}

// FlushSite 清空某站点缓存
func (r *Registry) FlushSite(ctx context.Context, sid int64) error {
	return r.Site(sid).Flush(ctx)
}
