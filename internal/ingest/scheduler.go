// 包 ingest：调度每周的记录刷新任务，运行在服务进程内的后台协程
package ingest

import (
	"context"
	"time"

	"diocese-atlas/internal/logger"
)

// NextWeekdayAt：计算 now 之后第一个 weekday 的 hour 整点（时区取 loc）
// 约束：严格晚于 now；hour 超出 0..23 时按 0 处理
func NextWeekdayAt(now time.Time, loc *time.Location, weekday time.Weekday, hour int) time.Time {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() != weekday {
			continue
		}
		t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
		if t.After(now) {
			return t
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// 文档注释：每周定时执行刷新任务
// 背景：记录源（CSV 或数据库）由外部导入工具更新；服务按固定节奏重新加载，无需重启。
// 约束：错误只记录日志，任务继续调度；ctx 取消后协程退出；不补跑错过的周期。
func StartWeekly(ctx context.Context, loc *time.Location, weekday time.Weekday, hour int, job func(context.Context) error) {
	l := logger.L()
	if loc == nil {
		loc = time.UTC
	}
	go func() {
		for {
			next := NextWeekdayAt(time.Now(), loc, weekday, hour)
			l.Debug("ingest_scheduled", "next", next)
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			l.Info("ingest_start")
			if err := job(ctx); err != nil {
				l.Error("ingest_error", "err", err)
			} else {
				l.Info("ingest_done")
			}
		}
	}()
}
