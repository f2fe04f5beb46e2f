package render

import (
	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/match"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/stats"
)

// Kind 弹窗类型
type Kind string

const (
	KindEmpty  Kind = "empty"
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
)

const noDataMessage = "No diocese data for this region"

// HistoryPoint 某年份的统计值；Value 为 nil 表示该年无有效数值
type HistoryPoint struct {
	Year  int      `json:"year"`
	Value *float64 `json:"value"`
}

// DioceseSummary 单个教区的弹窗条目
type DioceseSummary struct {
	Diocese      string         `json:"diocese"`
	Name         string         `json:"name"`
	Country      string         `json:"country"`
	Year         string         `json:"year"`
	Jurisdiction string         `json:"jurisdiction"`
	Value        string         `json:"value"`
	History      []HistoryPoint `json:"history,omitempty"`
}

// 文档注释：边界弹窗载荷（对绘制方不透明）
// 背景：单教区展示该教区自身数值与历史；多教区展示聚合值及教区列表；无数据边界只给名称与国家。
type Payload struct {
	Kind        Kind             `json:"kind"`
	Title       string           `json:"title"`
	Country     string           `json:"country"`
	Region      string           `json:"region"`
	Statistic   string           `json:"statistic,omitempty"`
	Label       string           `json:"label,omitempty"`
	Aggregation string           `json:"aggregation,omitempty"`
	Value       float64          `json:"value"`
	Formatted   string           `json:"formatted,omitempty"`
	Count       int              `json:"count"`
	HasHistory  bool             `json:"has_history"`
	Dioceses    []DioceseSummary `json:"dioceses,omitempty"`
	Message     string           `json:"message,omitempty"`
}

// HistorySource 按教区标识查询历史
type HistorySource interface {
	History(id string) []*record.Record
}

// EmptyPayload 无命中边界的载荷
func EmptyPayload(b *geo.Boundary) Payload {
	title := b.Name
	if title == "" {
		title = "Unknown Region"
	}
	country := b.Country
	if country == "" {
		country = "Unknown Country"
	}
	return Payload{Kind: KindEmpty, Title: title, Country: country, Region: title, Message: noDataMessage}
}

// BuildPayload 有命中边界的载荷
func BuildPayload(m *match.Match, set *match.Set, stat stats.Statistic, value float64, hs HistorySource) Payload {
	primary := m.Records[0]
	region, ok := set.BoundaryName(primary)
	if !ok {
		region = m.Boundary.DisplayName()
	}
	p := Payload{
		Country:     orNA(primary.Country),
		Region:      region,
		Statistic:   stat.Name,
		Label:       stat.Label,
		Aggregation: stat.AggregationLabel(),
		Value:       value,
		Formatted:   stat.FormatFloat(value),
		Count:       len(m.Records),
	}
	if len(m.Records) == 1 {
		p.Kind = KindSingle
		p.Title = primary.Diocese
		if p.Title == "" {
			p.Title = "Unknown Diocese"
		}
		d := summarize(primary, stat, hs)
		p.HasHistory = len(d.History) > 1
		p.Dioceses = []DioceseSummary{d}
		return p
	}
	p.Kind = KindMulti
	p.Title = region
	if p.Title == "" {
		p.Title = "Region"
	}
	p.Dioceses = make([]DioceseSummary, 0, len(m.Records))
	for _, r := range m.Records {
		d := summarize(r, stat, hs)
		if len(d.History) > 1 {
			p.HasHistory = true
		}
		p.Dioceses = append(p.Dioceses, d)
	}
	return p
}

func summarize(r *record.Record, stat stats.Statistic, hs HistorySource) DioceseSummary {
	d := DioceseSummary{
		Diocese:      r.Diocese,
		Name:         orNA(r.Name),
		Country:      orNA(r.Country),
		Year:         r.Year,
		Jurisdiction: orNA(r.Jurisdiction),
		Value:        stat.FormatRaw(r.Value(stat.Name)),
	}
	if hs == nil {
		return d
	}
	d.History = HistoryOf(hs.History(r.Identity()), stat)
	return d
}

// HistoryOf 历史记录转换为年份序列；百分比统计项截断到 100
func HistoryOf(history []*record.Record, stat stats.Statistic) []HistoryPoint {
	var out []HistoryPoint
	for _, h := range history {
		pt := HistoryPoint{Year: h.YearInt()}
		if v, ok := stats.ParseValue(h.Value(stat.Name)); ok {
			if stat.Bounded() && v > 100 {
				v = 100
			}
			pt.Value = &v
		}
		out = append(out, pt)
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return stats.NotAvailable
	}
	return s
}
