package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
)

// DefaultSimplifyTolerance 载入时的简化容差（度）
const DefaultSimplifyTolerance = 0.001

// 文档注释：GeoJSON 边界解析
// 背景：边界数据以 FeatureCollection 提供；属性大小写不统一，几何可能过密。
// 约束：tolerance<=0 时不做简化；不支持的几何类型仍保留为边界（绘制为无数据），只是永不命中。
func ParseFeatureCollection(data []byte, tolerance float64) ([]*Boundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundaries: %w", err)
	}
	out := make([]*Boundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		out = append(out, FromFeature(f, tolerance))
	}
	return out, nil
}

// FromFeature 将单个 Feature 规范化为 Boundary
func FromFeature(f *geojson.Feature, tolerance float64) *Boundary {
	name := propString(f.Properties, "NAME", "name")
	country := propString(f.Properties, "COUNTRY", "country")
	g := f.Geometry
	if g != nil && tolerance > 0 {
		g = simplifyGeometry(g, tolerance)
	}
	return NewBoundary(name, country, g, map[string]any(f.Properties))
}

// simplifyGeometry 仅简化面类几何；简化失败（退化为空）时保留原几何
func simplifyGeometry(g orb.Geometry, tolerance float64) orb.Geometry {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return g
	}
	s := simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(g))
	if s == nil || isEmpty(s) {
		return g
	}
	return s
}

func isEmpty(g orb.Geometry) bool {
	switch gg := g.(type) {
	case orb.Polygon:
		return len(gg) == 0 || len(gg[0]) < 4
	case orb.MultiPolygon:
		return len(gg) == 0
	}
	return false
}

// EncodeFeatureCollection 将边界编码回 GeoJSON，写入共享缓存层时使用
func EncodeFeatureCollection(bs []*Boundary) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, b := range bs {
		fc.Append(ToFeature(b))
	}
	return fc.MarshalJSON()
}

// ToFeature 以规范化属性输出 Feature（NAME/COUNTRY 为大写键）
func ToFeature(b *Boundary) *geojson.Feature {
	f := geojson.NewFeature(b.Geometry)
	for k, v := range b.Props {
		f.Properties[k] = v
	}
	f.Properties["NAME"] = b.Name
	f.Properties["COUNTRY"] = b.Country
	return f
}

func propString(p geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v, ok := p[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
