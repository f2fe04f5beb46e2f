package middleware

import (
	"net/http"

	"diocese-atlas/internal/logger"

	"golang.org/x/time/rate"
)

// 文档注释：令牌桶限流中间件
// 背景：渲染请求会触发边界加载与整轮绘制，在流量峰值时对入口限速，避免缓存与数据库被过载。
// 约束：不排队，超出速率直接返回 429；qps<=0 时不限流。
func RateLimit(qps float64, burst int, next http.Handler) http.Handler {
	if qps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(qps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Wrap 按开关决定是否挂载限流
func Wrap(enabled bool, qps float64, burst int, next http.Handler) http.Handler {
	if !enabled {
		return next
	}
	return RateLimit(qps, burst, next)
}
