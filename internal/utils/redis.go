// 包 utils：Postgres/Redis 连接工具，统一环境变量读取
package utils

import (
	"os"

	"diocese-atlas/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedisFromEnv：从环境变量打开 Redis 客户端
// 约束：REDIS_ENABLED=false 时返回 nil（仅使用进程内缓存）；REDIS_DB 解析失败回退到 0
func OpenRedisFromEnv() *redis.Client {
	if os.Getenv("REDIS_ENABLED") == "false" {
		return nil
	}
	addr := envOr("REDIS_HOST", "127.0.0.1") + ":" + envOr("REDIS_PORT", "6379")
	db := envInt("REDIS_DB", 0)
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db})
}
