// 包 atlas：渲染编排（选择解析 → 边界加载 → 记录匹配 → 增量绘制）
package atlas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"diocese-atlas/internal/boundary"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/match"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/region"
	"diocese-atlas/internal/render"
	"diocese-atlas/internal/stats"
)

// ErrNoSelection 选择未解析出任何国家
var ErrNoSelection = errors.New("no countries selected")

// Selection 一次渲染的选择
type Selection struct {
	Countries []string
	Continent string
	Statistic string
}

// Result 渲染结果
type Result struct {
	Report    render.Report `json:"report"`
	Skipped   bool          `json:"skipped"`
	Countries []string      `json:"countries"`
	Failed    []string      `json:"failed_countries,omitempty"`
	Matched   int           `json:"matched_records"`
}

// 文档注释：渲染编排器
// 背景：统一调度边界注册表、记录索引与渲染驱动；每次渲染新建匹配集，结束即丢弃。
// 约束：记录索引可整体替换（Reload），替换与读取由读写锁保护；驱动忙时直接跳过，不加载边界。
type Service struct {
	reg         *boundary.Registry
	driver      *render.Driver
	defaultStat string

	mu    sync.RWMutex
	index *record.Index
}

// New 构造编排器；defaultStat 为空或未注册时使用 Catholics
func New(reg *boundary.Registry, driver *render.Driver, defaultStat string) *Service {
	if _, ok := stats.Lookup(defaultStat); !ok {
		defaultStat = stats.Default
	}
	if driver == nil {
		driver = render.NewDriver()
	}
	return &Service{reg: reg, driver: driver, defaultStat: defaultStat, index: record.BuildIndex(nil)}
}

// Reload 重新读取记录并替换索引
func (s *Service) Reload(ctx context.Context, l RecordLoader) error {
	recs, err := l.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	idx := record.BuildIndex(recs)
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
	logger.L().Info("records_loaded", "rows", len(recs), "dioceses", idx.Len())
	return nil
}

// Index 当前记录索引
func (s *Service) Index() *record.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// DefaultStatistic 默认统计项
func (s *Service) DefaultStatistic() string { return s.defaultStat }

// Busy 是否有渲染进行中
func (s *Service) Busy() bool { return s.driver.State() == render.Rendering }

// Countries 可选择的国家（边界源中存在的国家）
func (s *Service) Countries(ctx context.Context) ([]string, error) {
	return s.reg.Countries(ctx)
}

// 文档注释：解析选择为国家列表
// 约束：显式国家优先；否则按大洲过滤可用国家；大洲为 All 时返回全部可用国家；结果去重并保持顺序。
func (s *Service) Resolve(ctx context.Context, sel Selection) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(c string) {
		c = strings.TrimSpace(c)
		k := strings.ToLower(c)
		if c == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	if len(sel.Countries) > 0 {
		for _, c := range sel.Countries {
			add(c)
		}
	} else if sel.Continent != "" {
		all, err := s.reg.Countries(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range region.Filter(all, sel.Continent) {
			add(c)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSelection
	}
	return out, nil
}

// 文档注释：执行一次渲染
// 背景：选择 → 国家列表 → 边界 → 各教区最新记录匹配 → 驱动分块绘制。
// 约束：统计项未注册返回 stats.ErrUnknownStatistic；驱动忙时 Skipped=true 且不触发绘制；
// 个别国家边界加载失败时其余国家照常渲染，失败国家记录在 Failed。
func (s *Service) Render(ctx context.Context, sel Selection, p render.Painter) (Result, error) {
	stat := sel.Statistic
	if stat == "" {
		stat = s.defaultStat
	}
	if _, ok := stats.Lookup(stat); !ok {
		return Result{}, fmt.Errorf("%w: %q", stats.ErrUnknownStatistic, stat)
	}
	countries, err := s.Resolve(ctx, sel)
	if err != nil {
		return Result{}, err
	}
	if s.Busy() {
		logger.L().Info("render_busy", "statistic", stat)
		return Result{Skipped: true, Countries: countries}, nil
	}
	bs, loaded := s.reg.Load(ctx, countries)
	failed := missing(countries, loaded)
	idx := s.Index()
	set := match.Records(idx.MostRecent(), bs, countries)
	rep, ok := s.driver.Render(render.Pass{
		Boundaries: bs,
		Matches:    set,
		Statistic:  stat,
		History:    idx,
		Painter:    p,
	})
	return Result{Report: rep, Skipped: !ok, Countries: countries, Failed: failed, Matched: set.MatchedRecords()}, nil
}

func missing(want, got []string) []string {
	have := make(map[string]struct{}, len(got))
	for _, c := range got {
		have[c] = struct{}{}
	}
	var out []string
	for _, c := range want {
		if _, ok := have[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}
