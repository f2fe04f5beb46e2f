// 包 render：分块增量渲染驱动，按边界解析颜色与弹窗载荷并交给绘制方
package render

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/heatmap"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/match"
	"diocese-atlas/internal/metrics"
	"diocese-atlas/internal/stats"

	"github.com/google/uuid"
)

// State 驱动状态
type State int32

const (
	Idle State = iota
	Rendering
)

func (s State) String() string {
	if s == Rendering {
		return "rendering"
	}
	return "idle"
}

// Painter 绘制协作方：每个边界调用一次
type Painter interface {
	Paint(b *geo.Boundary, color string, p Payload) error
}

// PaintFunc 函数适配 Painter
type PaintFunc func(b *geo.Boundary, color string, p Payload) error

func (f PaintFunc) Paint(b *geo.Boundary, color string, p Payload) error { return f(b, color, p) }

// Yielder 分块之间的让出点
type Yielder interface {
	Yield()
}

// YieldFunc 函数适配 Yielder
type YieldFunc func()

func (f YieldFunc) Yield() { f() }

// Gosched 默认让出：交还调度器
var Gosched Yielder = YieldFunc(runtime.Gosched)

// Progress 进度（已处理/总数），仅用于观测
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Pass 一次渲染的输入
type Pass struct {
	Boundaries []*geo.Boundary
	Matches    *match.Set
	Statistic  string
	History    HistorySource
	Painter    Painter
}

// Report 一次渲染的结果统计
type Report struct {
	PassID          string          `json:"pass_id"`
	Statistic       string          `json:"statistic"`
	Total           int             `json:"total"`
	Painted         int             `json:"painted"`
	WithData        int             `json:"with_data"`
	Failed          int             `json:"failed"`
	NothingToRender bool            `json:"nothing_to_render"`
	Legend          *heatmap.Legend `json:"legend,omitempty"`
	Duration        time.Duration   `json:"duration_ns"`
}

// ChunkSize 每块边界数：总数越大块越小，限制单次让出前的工作量
func ChunkSize(total int) int {
	switch {
	case total > 1000:
		return 10
	case total > 500:
		return 15
	default:
		return 20
	}
}

// Option 驱动配置项
type Option func(*Driver)

// WithYielder 替换让出原语
func WithYielder(y Yielder) Option { return func(d *Driver) { d.yield = y } }

// WithProgress 每块结束后回调进度
func WithProgress(fn func(Progress)) Option { return func(d *Driver) { d.progress = fn } }

// WithLogger 指定日志器
func WithLogger(l *slog.Logger) Option { return func(d *Driver) { d.log = l } }

// 文档注释：增量渲染驱动
// 背景：把全部边界切分为固定大小的块，块与块之间让出调度，保证宿主保持响应；每个边界解析颜色与弹窗后交给绘制方。
// 约束：状态机 Idle → Rendering → Idle；同一时刻至多一次渲染，进行中收到的新请求直接丢弃（不排队），调用方需自行防抖；
// 渲染一旦开始必定跑完，没有中途取消；单个边界绘制失败（返回错误或 panic）只记录日志，不影响其余边界。
type Driver struct {
	state    atomic.Int32
	yield    Yielder
	progress func(Progress)
	log      *slog.Logger
}

// NewDriver 构造驱动
func NewDriver(opts ...Option) *Driver {
	d := &Driver{yield: Gosched}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State 当前状态
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) logger() *slog.Logger {
	if d.log != nil {
		return d.log
	}
	return logger.L()
}

// Render 执行一次渲染；已有渲染进行中时为空操作并返回 ok=false
func (d *Driver) Render(p Pass) (Report, bool) {
	l := d.logger()
	if !d.state.CompareAndSwap(int32(Idle), int32(Rendering)) {
		metrics.RenderPassesDroppedTotal.Inc()
		l.Info("render_pass_skipped", "reason", "in_flight")
		return Report{}, false
	}
	defer d.state.Store(int32(Idle))

	t0 := time.Now()
	rep := Report{PassID: uuid.NewString(), Statistic: p.Statistic, Total: len(p.Boundaries)}
	l = l.With("pass", rep.PassID)

	stat, ok := stats.Lookup(p.Statistic)
	if !ok {
		l.Warn("render_unknown_statistic", "statistic", p.Statistic)
		rep.NothingToRender = true
		metrics.RenderEmptyTotal.Inc()
		return rep, true
	}

	aggregates := make(map[string]float64, p.Matches.Len())
	values := make([]float64, 0, p.Matches.Len())
	for _, m := range p.Matches.Matches() {
		v, _ := stat.Reduce(m.Records)
		aggregates[m.Boundary.Key] = v
		values = append(values, v)
	}
	scale, err := heatmap.NewScale(values)
	if err != nil {
		l.Warn("render_empty_domain", "statistic", stat.Name, "boundaries", len(p.Boundaries), "matched", p.Matches.Len())
		rep.NothingToRender = true
		rep.Duration = time.Since(t0)
		metrics.RenderEmptyTotal.Inc()
		return rep, true
	}
	legend := heatmap.LegendFor(scale.Min(), scale.Max(), stat)
	rep.Legend = &legend
	l.Debug("render_range", "statistic", stat.Name, "min", scale.Min(), "max", scale.Max())

	size := ChunkSize(rep.Total)
	processed := 0
	for chunk := range slices.Chunk(p.Boundaries, size) {
		if processed > 0 {
			d.yield.Yield()
		}
		for _, b := range chunk {
			hasData, err := d.paintOne(p, stat, scale, aggregates, b)
			if err != nil {
				rep.Failed++
				metrics.PaintFailuresTotal.Inc()
				l.Error("paint_error", "boundary", b.Key, "err", err)
				continue
			}
			rep.Painted++
			if hasData {
				rep.WithData++
				metrics.BoundariesPaintedTotal.WithLabelValues("yes").Inc()
			} else {
				metrics.BoundariesPaintedTotal.WithLabelValues("no").Inc()
			}
		}
		processed += len(chunk)
		if d.progress != nil {
			d.progress(Progress{Processed: processed, Total: rep.Total})
		}
		l.Debug("render_progress", "processed", processed, "total", rep.Total)
	}

	rep.Duration = time.Since(t0)
	metrics.RenderPassesTotal.Inc()
	metrics.RenderDurationMs.Observe(float64(rep.Duration.Milliseconds()))
	l.Info("render_done", "painted", rep.Painted, "with_data", rep.WithData, "failed", rep.Failed, "ms", rep.Duration.Milliseconds())
	if rep.WithData == 0 {
		l.Warn("render_no_colored_boundaries")
	}
	return rep, true
}

func (d *Driver) paintOne(p Pass, stat stats.Statistic, scale *heatmap.Scale, aggregates map[string]float64, b *geo.Boundary) (hasData bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("paint panic: %v", r)
		}
	}()
	m, ok := p.Matches.Get(b.Key)
	if !ok {
		return false, p.Painter.Paint(b, heatmap.NoDataColor, EmptyPayload(b))
	}
	v := aggregates[b.Key]
	payload := BuildPayload(m, p.Matches, stat, v, p.History)
	return true, p.Painter.Paint(b, scale.Color(v), payload)
}
