package api

import (
	"fmt"

	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/render"

	"github.com/paulmach/orb/geojson"
)

// 文档注释：GeoJSON 绘制方
// 背景：每个边界输出为一个 Feature，填充色与弹窗载荷写入 properties，前端直接按 fill 着色。
// 约束：仅由渲染驱动在单个 goroutine 内调用，不做并发保护；无几何的边界返回错误，由驱动记录并跳过。
type FeatureCollector struct {
	fc *geojson.FeatureCollection
}

func NewFeatureCollector() *FeatureCollector {
	return &FeatureCollector{fc: geojson.NewFeatureCollection()}
}

func (c *FeatureCollector) Paint(b *geo.Boundary, color string, p render.Payload) error {
	if b.Geometry == nil {
		return fmt.Errorf("boundary %s has no geometry", b.Key)
	}
	f := geojson.NewFeature(b.Geometry)
	f.ID = b.Key
	f.Properties["key"] = b.Key
	f.Properties["name"] = b.DisplayName()
	f.Properties["country"] = b.Country
	f.Properties["fill"] = color
	f.Properties["payload"] = p
	c.fc.Append(f)
	return nil
}

// Collection 已绘制的要素集合
func (c *FeatureCollector) Collection() *geojson.FeatureCollection { return c.fc }

// Len 已绘制要素数
func (c *FeatureCollector) Len() int { return len(c.fc.Features) }
