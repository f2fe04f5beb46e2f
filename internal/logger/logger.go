// 包 logger：统一初始化与获取进程日志器；级别与格式由环境变量控制
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// ParseLevel 解析 LOG_LEVEL 文本；未知值回退到 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New 按级别与格式构造日志器，format 为 json 时输出 JSON，否则为文本
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Setup：初始化默认日志器
// 背景：集中化日志配置，便于按环境统一调整级别与格式
// 约束：输出目标固定为标准错误；不在此处管理文件句柄
func Setup() *slog.Logger {
	l := New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"))
	Set(l)
	return l
}

// Set 替换默认日志器（测试中用于静默或捕获输出）
func Set(l *slog.Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// L：获取默认日志器；若未初始化则回退到 Setup
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return Setup()
	}
	return l
}
