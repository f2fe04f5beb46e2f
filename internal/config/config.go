// 包 config：集中读取运行参数（环境变量），数值解析失败时回退默认值
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"diocese-atlas/internal/boundary"
	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/stats"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config 服务运行参数
type Config struct {
	Addr    string
	APIBase string

	RecordSource string
	RecordsCSV   string

	BoundaryDir       string
	BoundaryTTL       time.Duration
	SimplifyTolerance float64
	BoundaryLRUSize   int

	RateLimitEnabled bool
	RateLimitQPS     float64
	RateLimitBurst   int

	DefaultStatistic string
	AdminToken       string

	// ReloadHour 每周一定时重新加载记录的整点；<0 关闭
	ReloadHour     int
	ReloadLocation *time.Location
}

// BoundaryOptions 转换为边界注册表参数
func (c Config) BoundaryOptions() boundary.Options {
	return boundary.Options{TTL: c.BoundaryTTL, LRUSize: c.BoundaryLRUSize, Tolerance: c.SimplifyTolerance}
}

// 文档注释：从环境变量加载配置
// 约束：未知的记录源回退为 csv；未注册的默认统计项回退为 Catholics；API_BASE 统一去掉末尾斜杠。
func Load() Config {
	c := Config{
		Addr:              envOr("ADDR", ":8080"),
		APIBase:           strings.TrimRight(envOr("API_BASE", "/api"), "/"),
		RecordSource:      strings.ToLower(envOr("RECORD_SOURCE", SourceCSV)),
		RecordsCSV:        envOr("RECORDS_CSV", "data/dioceses.csv"),
		BoundaryDir:       envOr("BOUNDARY_DIR", "data/boundaries"),
		BoundaryTTL:       time.Duration(envInt("BOUNDARY_CACHE_TTL_S", int(boundary.DefaultTTL/time.Second))) * time.Second,
		SimplifyTolerance: envFloat("BOUNDARY_SIMPLIFY_TOLERANCE", geo.DefaultSimplifyTolerance),
		BoundaryLRUSize:   envInt("BOUNDARY_LRU_SIZE", 64),
		RateLimitEnabled:  os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:      envFloat("RATE_LIMIT_QPS", 50),
		RateLimitBurst:    envInt("RATE_LIMIT_BURST", 100),
		DefaultStatistic:  envOr("RENDER_DEFAULT_STATISTIC", stats.Default),
		AdminToken:        os.Getenv("ADMIN_TOKEN"),
		ReloadHour:        -1,
		ReloadLocation:    time.UTC,
	}
	if c.RecordSource != SourceCSV && c.RecordSource != SourcePostgres {
		logger.L().Warn("config_unknown_record_source", "value", c.RecordSource)
		c.RecordSource = SourceCSV
	}
	if _, ok := stats.Lookup(c.DefaultStatistic); !ok {
		logger.L().Warn("config_unknown_statistic", "value", c.DefaultStatistic)
		c.DefaultStatistic = stats.Default
	}
	if s := os.Getenv("RECORDS_RELOAD_HOUR"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n >= 0 && n <= 23 {
			c.ReloadHour = n
		}
	}
	if tz := os.Getenv("RECORDS_RELOAD_TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			c.ReloadLocation = loc
		} else {
			logger.L().Warn("config_bad_timezone", "value", tz, "err", err)
		}
	}
	if c.SimplifyTolerance < 0 {
		c.SimplifyTolerance = 0
	}
	return c
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if s := os.Getenv(k); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil {
			return f
		}
	}
	return def
}
