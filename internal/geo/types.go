package geo

import (
	"regexp"
	"strings"

	"github.com/paulmach/orb"
)

// 文档注释：行政边界（多边形或多面）及其规范化属性
// 背景：边界来源的属性可能是 NAME/COUNTRY，也可能是小写 name/country；在摄入时统一映射到 Name/Country，下游不再判断大小写。
// 约束：Key 由国家+名称派生（小写、空白归一），同名不同国的边界不会冲突；几何仅支持 Polygon/MultiPolygon，其余类型永不命中。
type Boundary struct {
	Key      string
	Name     string
	Country  string
	Geometry orb.Geometry
	Bound    orb.Bound
	Props    map[string]any
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// BoundaryKey 派生边界唯一键：同一边界重复加载得到相同键，供缓存与“已加载”判断使用
func BoundaryKey(country, name string) string {
	if name == "" {
		name = "unknown"
	}
	if country == "" {
		country = "unknown"
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(country+"_"+name, "_"))
}

// NewBoundary 构造边界并预计算键与包围盒
func NewBoundary(name, country string, g orb.Geometry, props map[string]any) *Boundary {
	b := &Boundary{
		Key:      BoundaryKey(country, name),
		Name:     name,
		Country:  country,
		Geometry: g,
		Props:    props,
	}
	if g != nil {
		b.Bound = g.Bound()
	}
	return b
}

// DisplayName 展示名称，缺失时为 Unknown
func (b *Boundary) DisplayName() string {
	if b.Name == "" {
		return "Unknown"
	}
	return b.Name
}

// Contains 包围盒快速过滤后再做外环判定
func (b *Boundary) Contains(pt orb.Point) bool {
	if b.Geometry == nil {
		return false
	}
	if !b.Bound.Contains(pt) {
		return false
	}
	return PointInPolygon(pt, b.Geometry)
}

// CountryKey 国家名称的缓存键形式（小写、空白归一）
func CountryKey(country string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(country), "_"))
}
