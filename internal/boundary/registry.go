// 包 boundary：按所选国家加载行政边界，进程内 LRU + Redis 两级缓存
package boundary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/metrics"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTTL 边界缓存有效期
	DefaultTTL = time.Hour
	// maxSharedPayload 超过该大小的序列化结果不写入 Redis
	maxSharedPayload = 5_000_000
	keyPrefix        = "boundaries:"
	loadParallelism  = 4
)

// Options 注册表参数
type Options struct {
	TTL       time.Duration
	LRUSize   int
	Tolerance float64
}

// 文档注释：边界注册表
// 背景：渲染前按选择的国家取边界；先查进程内 LRU，再查 Redis（原始 GeoJSON），最后回源并写回两级缓存。
// 约束：选择作为参数传入，注册表不保存“当前已加载国家”这类全局状态；单个国家加载失败只记录并跳过，其余国家照常返回。
// Redis 为可选（nil 时只用进程内缓存）。
type Registry struct {
	src       Source
	rc        *redis.Client
	lru       *LRU
	ttl       time.Duration
	tolerance float64
	log       *slog.Logger
}

func NewRegistry(src Source, rc *redis.Client, opt Options) *Registry {
	if opt.TTL <= 0 {
		opt.TTL = DefaultTTL
	}
	return &Registry{
		src:       src,
		rc:        rc,
		lru:       NewLRU(opt.LRUSize, opt.TTL),
		ttl:       opt.TTL,
		tolerance: opt.Tolerance,
		log:       logger.L(),
	}
}

func cacheKey(country string) string { return keyPrefix + geo.CountryKey(country) }

// Countries 数据源中的全部国家
func (r *Registry) Countries(ctx context.Context) ([]string, error) {
	return r.src.Countries(ctx)
}

// Country 单个国家的边界
func (r *Registry) Country(ctx context.Context, country string) ([]*geo.Boundary, error) {
	k := cacheKey(country)
	if bs, ok := r.lru.Get(k); ok {
		metrics.BoundaryCacheTotal.WithLabelValues("memory", "hit").Inc()
		return bs, nil
	}
	metrics.BoundaryCacheTotal.WithLabelValues("memory", "miss").Inc()
	if r.rc != nil {
		if s, err := r.rc.Get(ctx, k).Bytes(); err == nil && len(s) > 0 {
			// 共享层存的是已简化的结果，不再二次简化
			if bs, err := geo.ParseFeatureCollection(s, 0); err == nil {
				metrics.BoundaryCacheTotal.WithLabelValues("redis", "hit").Inc()
				r.lru.Set(k, bs)
				return bs, nil
			}
		}
		metrics.BoundaryCacheTotal.WithLabelValues("redis", "miss").Inc()
	}
	raw, err := r.src.Load(ctx, country)
	if err != nil {
		return nil, err
	}
	bs, err := geo.ParseFeatureCollection(raw, r.tolerance)
	if err != nil {
		return nil, fmt.Errorf("country %s: %w", country, err)
	}
	r.lru.Set(k, bs)
	r.share(ctx, k, bs)
	r.log.Debug("boundary_loaded", "country", country, "features", len(bs))
	return bs, nil
}

func (r *Registry) share(ctx context.Context, k string, bs []*geo.Boundary) {
	if r.rc == nil {
		return
	}
	b, err := geo.EncodeFeatureCollection(bs)
	if err != nil {
		r.log.Warn("boundary_encode_error", "key", k, "err", err)
		return
	}
	if len(b) >= maxSharedPayload {
		r.log.Debug("boundary_share_skipped", "key", k, "bytes", len(b))
		return
	}
	if err := r.rc.Set(ctx, k, b, r.ttl).Err(); err != nil {
		r.log.Warn("boundary_share_error", "key", k, "err", err)
	}
}

// 文档注释：按国家列表加载边界
// 返回：按输入国家顺序拼接的边界，以及实际加载成功的国家；顺序稳定，匹配阶段的“先到先得”依赖该顺序。
func (r *Registry) Load(ctx context.Context, countries []string) ([]*geo.Boundary, []string) {
	parts := make([][]*geo.Boundary, len(countries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadParallelism)
	for i, c := range countries {
		g.Go(func() error {
			bs, err := r.Country(gctx, c)
			if err != nil {
				metrics.BoundaryLoadFailTotal.Inc()
				r.log.Warn("boundary_load_error", "country", c, "err", err)
				return nil
			}
			parts[i] = bs
			return nil
		})
	}
	_ = g.Wait()
	var out []*geo.Boundary
	var loaded []string
	for i, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, p...)
		loaded = append(loaded, countries[i])
	}
	if len(countries) > 0 && len(loaded) < len(countries) {
		r.log.Warn("boundary_partial_load", "loaded", len(loaded), "requested", len(countries))
	}
	return out, loaded
}

// Cached 国家边界是否已在任一缓存层
func (r *Registry) Cached(ctx context.Context, country string) bool {
	k := cacheKey(country)
	if r.lru.Has(k) {
		return true
	}
	if r.rc == nil {
		return false
	}
	n, err := r.rc.Exists(ctx, k).Result()
	return err == nil && n > 0
}

// Evict 从两级缓存删除；country 为空时清空进程内缓存
func (r *Registry) Evict(ctx context.Context, country string) {
	if country == "" {
		r.lru.Clear()
		return
	}
	k := cacheKey(country)
	r.lru.Delete(k)
	if r.rc != nil {
		_ = r.rc.Del(ctx, k).Err()
	}
}
