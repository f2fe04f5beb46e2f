// 包 match：将带坐标的教区记录分配到所选国家的行政边界
package match

import (
	"strings"
	"time"

	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/metrics"
	"diocese-atlas/internal/record"
)

// Match 单个边界及其命中记录
type Match struct {
	Boundary *geo.Boundary
	Records  []*record.Record
}

// 文档注释：匹配集（一次渲染过程内有效）
// 背景：边界键 → 命中记录；另附“记录 → 所属边界名称”的旁路表，替代直接改写记录。
// 约束：无命中的边界不出现在集合中；集合在每次渲染开始时新建，结束后丢弃，不做持久化。
type Set struct {
	matches map[string]*Match
	order   []string
	names   map[*record.Record]string
	records int
}

func newSet() *Set {
	return &Set{matches: make(map[string]*Match), names: make(map[*record.Record]string)}
}

// Get 按边界键取匹配
func (s *Set) Get(key string) (*Match, bool) {
	if s == nil {
		return nil, false
	}
	m, ok := s.matches[key]
	return m, ok
}

// Len 有数据的边界数
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// MatchedRecords 已分配的记录数
func (s *Set) MatchedRecords() int {
	if s == nil {
		return 0
	}
	return s.records
}

// Matches 按边界处理顺序返回
func (s *Set) Matches() []*Match {
	if s == nil {
		return nil
	}
	out := make([]*Match, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.matches[k])
	}
	return out
}

// BoundaryName 记录被分配到的边界展示名称
func (s *Set) BoundaryName(r *record.Record) (string, bool) {
	if s == nil {
		return "", false
	}
	n, ok := s.names[r]
	return n, ok
}

func (s *Set) add(b *geo.Boundary, r *record.Record) {
	m, ok := s.matches[b.Key]
	if !ok {
		m = &Match{Boundary: b}
		s.matches[b.Key] = m
		s.order = append(s.order, b.Key)
	}
	m.Records = append(m.Records, r)
	s.names[r] = b.DisplayName()
	s.records++
}

// FilterCountries 保留 Country（去空白）与任一所选国家大小写无关相等的记录
func FilterCountries(records []*record.Record, countries []string) []*record.Record {
	want := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		want[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	var out []*record.Record
	for _, r := range records {
		if _, ok := want[strings.ToLower(strings.TrimSpace(r.Country))]; ok {
			out = append(out, r)
		}
	}
	return out
}

// 文档注释：记录与边界匹配
// 背景：先按所选国家过滤记录，再对每个边界逐条测试记录坐标（lon, lat）。
// 约束：暴力匹配，复杂度 O(边界数 × 过滤后记录数)，在数百边界、数千记录的规模可接受，不引入空间索引；
// 边界之间不保证互斥，记录只归属按迭代顺序第一个包含它的边界；无坐标的记录永不命中。
// 过滤后无记录时返回空集合并记录告警，不视为错误。
func Records(records []*record.Record, boundaries []*geo.Boundary, countries []string) *Set {
	l := logger.L()
	set := newSet()
	if len(boundaries) == 0 {
		l.Warn("match_no_boundaries")
		return set
	}
	filtered := FilterCountries(records, countries)
	if len(filtered) == 0 {
		l.Warn("match_no_records", "countries", countries, "records", len(records))
		return set
	}
	t0 := time.Now()
	assigned := make([]bool, len(filtered))
	for _, b := range boundaries {
		for i, r := range filtered {
			if assigned[i] {
				continue
			}
			pt, ok := r.Point()
			if !ok {
				continue
			}
			if b.Contains(pt) {
				assigned[i] = true
				set.add(b, r)
			}
		}
	}
	metrics.MatchDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	l.Info("match_done",
		"boundaries", len(boundaries),
		"filtered", len(filtered),
		"matched_records", set.records,
		"matched_boundaries", set.Len(),
		"ms", time.Since(t0).Milliseconds(),
	)
	return set
}
