package main

import (
	"context"
	"os"
	"strings"
	"time"

	"diocese-atlas/internal/boundary"
	"diocese-atlas/internal/config"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/region"
	"diocese-atlas/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：预热边界共享缓存
// 背景：首次渲染大洲级选择时需解析并简化大量边界；提前写入 Redis，服务实例启动后可直接命中。
// 约束：WARM_COUNTRIES（逗号分隔）优先，其次 WARM_CONTINENT，都未设置时预热全部国家；Redis 未启用时退出。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	cfg := config.Load()
	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Error("redis_disabled")
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		os.Exit(1)
	}
	reg := boundary.NewRegistry(boundary.NewDirSource(cfg.BoundaryDir), rc, cfg.BoundaryOptions())
	var countries []string
	for _, c := range strings.Split(os.Getenv("WARM_COUNTRIES"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}
	if len(countries) == 0 {
		all, err := reg.Countries(ctx)
		if err != nil {
			l.Error("countries_error", "err", err)
			os.Exit(1)
		}
		countries = region.Filter(all, os.Getenv("WARM_CONTINENT"))
	}
	if os.Getenv("WARM_FORCE") == "true" {
		for _, c := range countries {
			reg.Evict(ctx, c)
		}
	}
	t0 := time.Now()
	bs, loaded := reg.Load(ctx, countries)
	l.Info("warm_done", "requested", len(countries), "loaded", len(loaded), "boundaries", len(bs), "ms", time.Since(t0).Milliseconds())
}
