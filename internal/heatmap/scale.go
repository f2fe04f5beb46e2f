// 包 heatmap：按聚合值动态区间构建分位色阶与图例
package heatmap

import (
	"errors"
	"math"
	"sort"
)

// Palette 低→高的 12 色调色板
var Palette = []string{
	"#7f1d1d",
	"#991b1b",
	"#dc2626",
	"#ef4444",
	"#f97316",
	"#fb923c",
	"#fbbf24",
	"#facc15",
	"#84cc16",
	"#22c55e",
	"#10b981",
	"#059669",
}

const (
	// NeutralColor 非数值输入的颜色，不在调色板内
	NeutralColor = "#404040"
	// NoDataColor 无命中记录的边界填充色
	NoDataColor = "#2c2c2c"
)

// ErrEmptyDomain 没有可用于构建色阶的数值（“无可渲染内容”）
var ErrEmptyDomain = errors.New("heatmap: empty value domain")

// 文档注释：分位色阶
// 背景：以当前匹配集聚合值的 [min, max] 为定义域，按调色板颜色数等分为分位桶；每次渲染重新计算，不跨渲染缓存。
// 约束：min==max 时阈值全部相同，不做任何除法；定义域外的有限值落入首/末桶；NaN/Inf 返回中性色。
type Scale struct {
	min, max   float64
	thresholds []float64
	palette    []string
}

// Domain 从聚合值构建色阶：值为 0 或非有限值的边界视为无意义数据，不参与区间计算
func Domain(values []float64) (min, max float64, err error) {
	min, max = math.Inf(1), math.Inf(-1)
	n := 0
	for _, v := range values {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n++
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if n == 0 {
		return 0, 0, ErrEmptyDomain
	}
	return min, max, nil
}

// NewScale 以聚合值构建色阶
func NewScale(values []float64) (*Scale, error) {
	min, max, err := Domain(values)
	if err != nil {
		return nil, err
	}
	return NewScaleRange(min, max, Palette), nil
}

// NewScaleRange 以给定区间与调色板构建色阶
func NewScaleRange(min, max float64, palette []string) *Scale {
	n := len(palette)
	s := &Scale{min: min, max: max, palette: palette}
	if n > 1 {
		s.thresholds = make([]float64, n-1)
		span := max - min
		for i := 1; i < n; i++ {
			s.thresholds[i-1] = min + span*float64(i)/float64(n)
		}
	}
	return s
}

// Min 定义域下界
func (s *Scale) Min() float64 { return s.min }

// Max 定义域上界
func (s *Scale) Max() float64 { return s.max }

// Bucket 值所在分位桶序号（阈值右侧二分）；非有限值返回 -1
func (s *Scale) Bucket(v float64) int {
	if s == nil || len(s.palette) == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	return sort.Search(len(s.thresholds), func(i int) bool { return s.thresholds[i] > v })
}

// Color 值对应的颜色
func (s *Scale) Color(v float64) string {
	i := s.Bucket(v)
	if i < 0 {
		return NeutralColor
	}
	return s.palette[i]
}
