package record

import (
	"sort"
	"strings"
)

// 文档注释：教区历史索引
// 背景：按教区标识聚合多年记录并按年份升序排序，供“最新快照”聚合与弹窗历史查询。
// 约束：无标识的行不进入索引；年份不可解析按 0 排序；排序稳定，同年保持输入顺序。只读，构建后可并发读取。
type Index struct {
	order   []string
	history map[string][]*Record
}

// BuildIndex 构建索引
func BuildIndex(records []*Record) *Index {
	idx := &Index{history: make(map[string][]*Record)}
	for _, r := range records {
		id := r.Identity()
		if id == "" {
			continue
		}
		if _, ok := idx.history[id]; !ok {
			idx.order = append(idx.order, id)
		}
		idx.history[id] = append(idx.history[id], r)
	}
	for _, h := range idx.history {
		sort.SliceStable(h, func(i, j int) bool { return h[i].YearInt() < h[j].YearInt() })
	}
	return idx
}

// Len 教区数量
func (idx *Index) Len() int { return len(idx.order) }

// History 指定教区的历史（按年升序）；未知教区返回 nil
func (idx *Index) History(id string) []*Record {
	return idx.history[id]
}

// MostRecent 每个教区的最新记录，按首次出现顺序
func (idx *Index) MostRecent() []*Record {
	out := make([]*Record, 0, len(idx.order))
	for _, id := range idx.order {
		h := idx.history[id]
		if len(h) > 0 {
			out = append(out, h[len(h)-1])
		}
	}
	return out
}

const (
	minSearchLen     = 2
	maxSearchResults = 10
)

// Search 在最新快照中按教区名/国家/名称做大小写无关的子串匹配，最多返回 10 条
func (idx *Index) Search(query string) []*Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < minSearchLen {
		return nil
	}
	var out []*Record
	for _, r := range idx.MostRecent() {
		if strings.Contains(strings.ToLower(r.Diocese), q) ||
			strings.Contains(strings.ToLower(r.Country), q) ||
			strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
			if len(out) == maxSearchResults {
				break
			}
		}
	}
	return out
}
