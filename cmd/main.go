// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"diocese-atlas/internal/api"
	"diocese-atlas/internal/atlas"
	"diocese-atlas/internal/boundary"
	"diocese-atlas/internal/config"
	"diocese-atlas/internal/ingest"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/metrics"
	"diocese-atlas/internal/middleware"
	"diocese-atlas/internal/migrate"
	"diocese-atlas/internal/render"
	"diocese-atlas/internal/store"
	"diocese-atlas/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_record_source", "source", cfg.RecordSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var loader atlas.RecordLoader = atlas.CSVLoader{Path: cfg.RecordsCSV}
	if cfg.RecordSource == config.SourcePostgres {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		loader = store.AttachDB(db)
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			// 共享层不可用时只用进程内缓存
			l.Error("redis_ping_error", "err", err)
			rc = nil
		} else {
			l.Info("redis_ping_ok")
		}
	}

	reg := boundary.NewRegistry(boundary.NewDirSource(cfg.BoundaryDir), rc, cfg.BoundaryOptions())
	svc := atlas.New(reg, render.NewDriver(), cfg.DefaultStatistic)
	if err := svc.Reload(ctx, loader); err != nil {
		// 记录缺失时仍启动，渲染结果为空
		l.Error("records_load_error", "err", err)
	}

	if cfg.ReloadHour >= 0 {
		ingest.StartWeekly(ctx, cfg.ReloadLocation, time.Monday, cfg.ReloadHour, func(ctx context.Context) error {
			return svc.Reload(ctx, loader)
		})
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(svc, loader, cfg.AdminToken)
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	handler := logger.AccessMiddleware(l)(middleware.Wrap(cfg.RateLimitEnabled, cfg.RateLimitQPS, cfg.RateLimitBurst, mux))
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()
	l.Info("server_listen", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}
