package stats

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"diocese-atlas/internal/record"
)

const percentCap = 100.0

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseValue 去掉千分位逗号后解析前导数值（"45%" 解析为 45）；空白或非数值返回 ok=false
func ParseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Aggregate 按统计项名称聚合；未知统计项返回 0
func Aggregate(records []*record.Record, name string) float64 {
	s, ok := Lookup(name)
	if !ok {
		return 0
	}
	v, _ := s.Reduce(records)
	return v
}

// 文档注释：将一组记录归约为单个数值
// 背景：非数值/空白不计入（不当作 0）；有界百分比单值先截断到 100，均值再截断一次；求和不截断。
// 返回：聚合值与参与计算的记录数；无可用值时为 (0, 0)，调用方只能通过匹配集是否包含边界区分“真 0”与“无数据”。
func (s Statistic) Reduce(records []*record.Record) (float64, int) {
	sum := 0.0
	used := 0
	for _, r := range records {
		v, ok := ParseValue(r.Value(s.Name))
		if !ok {
			continue
		}
		if s.Bounded() && v > percentCap {
			v = percentCap
		}
		sum += v
		used++
	}
	if used == 0 {
		return 0, 0
	}
	if s.Mode == ModeAverage {
		avg := sum / float64(used)
		if s.Bounded() && avg > percentCap {
			avg = percentCap
		}
		return avg, used
	}
	return sum, used
}
