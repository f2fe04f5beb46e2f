// 包 stats：统计项注册表、数值解析、按边界聚合与展示格式化
package stats

import "errors"

// Format 数值展示格式
type Format int

const (
	FormatKindNumber Format = iota
	FormatKindPercent
)

// Mode 聚合方式
type Mode int

const (
	ModeSum Mode = iota
	ModeAverage
)

func (m Mode) String() string {
	if m == ModeAverage {
		return "avg"
	}
	return "sum"
}

// ErrUnknownStatistic 注册表中不存在该统计项
var ErrUnknownStatistic = errors.New("stats: unknown statistic")

// 文档注释：统计项配置（只读）
// 约束：Format 为百分比的统计项语义上有界（≤100），聚合前后均截断到 100。
type Statistic struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Format Format `json:"-"`
	Mode   Mode   `json:"-"`
}

// Bounded 是否为有界百分比
func (s Statistic) Bounded() bool { return s.Format == FormatKindPercent }

// AggregationLabel 弹窗中的聚合方式文字
func (s Statistic) AggregationLabel() string {
	if s.Mode == ModeAverage {
		return "Average"
	}
	return "Total"
}

// Default 默认统计项
const Default = "Catholics"

var registry = []Statistic{
	{Name: "Catholics", Label: "Catholics", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Total Population", Label: "Total Population", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Percent Catholic", Label: "Percent Catholic", Format: FormatKindPercent, Mode: ModeAverage},
	{Name: "Diocesan Priests", Label: "Diocesan Priests", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Religious Priests", Label: "Religious Priests", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Total Priests", Label: "Total Priests", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Catholics Per Priest", Label: "Catholics Per Priest", Format: FormatKindNumber, Mode: ModeAverage},
	{Name: "Permanent Deacons", Label: "Permanent Deacons", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Male Religious", Label: "Male Religious", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Female Religious", Label: "Female Religious", Format: FormatKindNumber, Mode: ModeSum},
	{Name: "Parishes", Label: "Parishes", Format: FormatKindNumber, Mode: ModeSum},
}

// Lookup 按名称查找统计项
func Lookup(name string) (Statistic, bool) {
	for _, s := range registry {
		if s.Name == name {
			return s, true
		}
	}
	return Statistic{}, false
}

// All 注册表副本，按声明顺序
func All() []Statistic {
	out := make([]Statistic, len(registry))
	copy(out, registry)
	return out
}
