package boundary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"diocese-atlas/internal/logger"

	"github.com/paulmach/orb/geojson"
)

// ErrNotFound 数据源中没有该国家的边界
var ErrNotFound = errors.New("boundary: country not found")

// Source 边界数据源：列出国家并按国家返回 GeoJSON FeatureCollection 原文
type Source interface {
	Countries(ctx context.Context) ([]string, error)
	Load(ctx context.Context, country string) ([]byte, error)
}

// 文档注释：目录数据源
// 背景：数据目录下放置若干 *.geojson（FeatureCollection 或单个 Feature），可以是按国家拆分的文件，也可以是整体世界文件；
// 首次使用时扫描一次并按 COUNTRY/country 属性建立国家索引。
// 约束：扫描结果常驻内存，目录变更需重建 DirSource；无法解析的文件记录日志后跳过。
type DirSource struct {
	dir  string
	once sync.Once
	err  error
	byC  map[string][]*geojson.Feature
	name map[string]string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) scan() {
	s.byC = make(map[string][]*geojson.Feature)
	s.name = make(map[string]string)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.err = fmt.Errorf("read boundary dir: %w", err)
		return
	}
	l := logger.L()
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(strings.ToLower(ent.Name()), ".geojson") {
			continue
		}
		fp := filepath.Join(s.dir, ent.Name())
		b, err := os.ReadFile(fp)
		if err != nil {
			l.Error("boundary_file_read_error", "file", fp, "err", err)
			continue
		}
		features, err := decodeFeatures(b)
		if err != nil {
			l.Error("boundary_file_parse_error", "file", fp, "err", err)
			continue
		}
		for _, f := range features {
			c := countryOf(f)
			if c == "" {
				continue
			}
			k := strings.ToLower(c)
			if _, ok := s.name[k]; !ok {
				s.name[k] = c
			}
			s.byC[k] = append(s.byC[k], f)
		}
		l.Debug("boundary_file_indexed", "file", fp, "features", len(features))
	}
}

func decodeFeatures(b []byte) ([]*geojson.Feature, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, err
	}
	if strings.EqualFold(probe.Type, "FeatureCollection") {
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			return nil, err
		}
		return fc.Features, nil
	}
	f, err := geojson.UnmarshalFeature(b)
	if err != nil {
		return nil, err
	}
	return []*geojson.Feature{f}, nil
}

func countryOf(f *geojson.Feature) string {
	for _, k := range []string{"COUNTRY", "country"} {
		if v, ok := f.Properties[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Countries 去重、排序后的国家名称
func (s *DirSource) Countries(ctx context.Context) ([]string, error) {
	s.once.Do(s.scan)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, 0, len(s.name))
	for _, n := range s.name {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Load 返回该国家（大小写无关）全部要素组成的 FeatureCollection
func (s *DirSource) Load(ctx context.Context, country string) ([]byte, error) {
	s.once.Do(s.scan)
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := s.byC[strings.ToLower(strings.TrimSpace(country))]
	if len(fs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, country)
	}
	fc := geojson.NewFeatureCollection()
	fc.Features = fs
	return fc.MarshalJSON()
}
