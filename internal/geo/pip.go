package geo

import "github.com/paulmach/orb"

// 文档注释：点入多边形判定（Even-Odd）
// 背景：对每个边界的外环执行射线交叉计数；多面取任一组成多边形的外环。
// 约束：只看外环，内环（洞）不做扣除，落在洞内的点视为命中，这是有意降低的精度；
// 非 Polygon/MultiPolygon 的几何一律返回 false。纯函数，无副作用。
func PointInPolygon(pt orb.Point, g orb.Geometry) bool {
	switch gg := g.(type) {
	case orb.Polygon:
		if len(gg) == 0 {
			return false
		}
		return PointInRing(pt, gg[0])
	case orb.MultiPolygon:
		for _, poly := range gg {
			if len(poly) > 0 && PointInRing(pt, poly[0]) {
				return true
			}
		}
	}
	return false
}

// PointInRing 射线法判定点是否在环内；环无需显式闭合
func PointInRing(pt orb.Point, ring orb.Ring) bool {
	n := len(ring)
	inside := false
	x, y := pt[0], pt[1]
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		// (yi > y) != (yj > y) 保证 yj != yi，不会出现除零
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
