// 包 record：教区年度观测记录、CSV 摄入与按教区聚合的历史索引
package record

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// 已知的非统计列；其余列均视为统计值（数值或空白）
const (
	ColID           = "ID"
	ColDiocese      = "Diocese"
	ColName         = "Name"
	ColCountry      = "Country"
	ColLatitude     = "Latitude"
	ColLongitude    = "Longitude"
	ColYear         = "Year"
	ColJurisdiction = "Type_of_Jurisdiction"
)

// 文档注释：单条教区年度观测
// 背景：同一教区（Diocese，缺失时用 ID）跨年份的多条记录构成按年排序的历史；历史末元素为“最新”快照。
// 约束：坐标缺失或非数值时 Located=false，此类记录不参与边界匹配，但仍保留在历史中。
type Record struct {
	ID           string
	Diocese      string
	Name         string
	Country      string
	Jurisdiction string
	Latitude     float64
	Longitude    float64
	Located      bool
	Year         string
	Values       map[string]string
}

// Identity 教区标识：Diocese 优先，其次 ID
func (r *Record) Identity() string {
	if r.Diocese != "" {
		return r.Diocese
	}
	return r.ID
}

// YearInt 年份整数；无法解析时为 0
func (r *Record) YearInt() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Year))
	if err != nil {
		return 0
	}
	return n
}

// Point 经纬度点（lon, lat）；ok=false 表示不可匹配
func (r *Record) Point() (orb.Point, bool) {
	if !r.Located {
		return orb.Point{}, false
	}
	return orb.Point{r.Longitude, r.Latitude}, true
}

// Value 统计原始值（可能为空白或非数值）
func (r *Record) Value(stat string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[stat]
}

// SetCoordinates 解析文本坐标，任一不是有限数值时记录不可定位
func (r *Record) SetCoordinates(lat, lon string) {
	la, ok1 := parseCoord(lat)
	lo, ok2 := parseCoord(lon)
	r.Latitude, r.Longitude = la, lo
	r.Located = ok1 && ok2
}

func parseCoord(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FromRow 由列名→值映射构造记录，统计列放入 Values
func FromRow(row map[string]string) *Record {
	r := &Record{
		ID:           strings.TrimSpace(row[ColID]),
		Diocese:      strings.TrimSpace(row[ColDiocese]),
		Name:         strings.TrimSpace(row[ColName]),
		Country:      row[ColCountry],
		Jurisdiction: strings.TrimSpace(row[ColJurisdiction]),
		Year:         strings.TrimSpace(row[ColYear]),
		Values:       make(map[string]string),
	}
	r.SetCoordinates(row[ColLatitude], row[ColLongitude])
	for k, v := range row {
		switch k {
		case ColID, ColDiocese, ColName, ColCountry, ColLatitude, ColLongitude, ColYear, ColJurisdiction:
			continue
		}
		r.Values[k] = v
	}
	return r
}
