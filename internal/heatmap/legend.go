package heatmap

import "diocese-atlas/internal/stats"

// Legend 图例描述：标题、调色板色块、格式化的最小/最大值
type Legend struct {
	Statistic string   `json:"statistic"`
	Label     string   `json:"label"`
	Palette   []string `json:"palette"`
	Min       string   `json:"min"`
	Max       string   `json:"max"`
	MinValue  float64  `json:"min_value"`
	MaxValue  float64  `json:"max_value"`
}

// LegendFor 百分比以 % 结尾，其余按千分位分组
func LegendFor(min, max float64, stat stats.Statistic) Legend {
	pal := make([]string, len(Palette))
	copy(pal, Palette)
	return Legend{
		Statistic: stat.Name,
		Label:     stat.Label,
		Palette:   pal,
		Min:       stat.FormatFloat(min),
		Max:       stat.FormatFloat(max),
		MinValue:  min,
		MaxValue:  max,
	}
}
