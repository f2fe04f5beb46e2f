package stats

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable 空白或非数值的展示文本
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// FormatNumber 四舍五入到整数并按 en-US 千分位分组
func FormatNumber(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatPercent 截断到 100 并保留一位小数
func FormatPercent(v float64) string {
	if v > percentCap {
		v = percentCap
	}
	return fmt.Sprintf("%.1f%%", v)
}

// FormatFloat 按统计项格式展示数值
func (s Statistic) FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	if s.Format == FormatKindPercent {
		return FormatPercent(v)
	}
	return FormatNumber(v)
}

// FormatRaw 展示记录中的原始统计值
func (s Statistic) FormatRaw(raw string) string {
	v, ok := ParseValue(raw)
	if !ok {
		return NotAvailable
	}
	return s.FormatFloat(v)
}

// FormatValue 按统计项名称格式化；未注册的统计项按普通数值处理
func FormatValue(name string, v float64) string {
	s, ok := Lookup(name)
	if !ok {
		s = Statistic{Name: name, Format: FormatKindNumber}
	}
	return s.FormatFloat(v)
}
