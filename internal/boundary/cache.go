package boundary

import (
	"container/list"
	"sync"
	"time"

	"diocese-atlas/internal/geo"
)

// 文档注释：进程内 LRU 缓存（国家键 → 已解析边界）
// 背景：同一国家的边界在短时间内被反复选中，缓存解析与简化后的结果避免重复读取；TTL 可调。
// 约束：键由调用方构造（geo.CountryKey）；过期条目在读取时惰性淘汰。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type entry struct {
	k   string
	v   []*geo.Boundary
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 64
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *LRU) Get(k string) ([]*geo.Boundary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	if !ok {
		return nil, false
	}
	it := e.Value.(entry)
	if c.now().Before(it.exp) {
		c.lst.MoveToFront(e)
		return it.v, true
	}
	c.lst.Remove(e)
	delete(c.dict, k)
	return nil, false
}

func (c *LRU) Set(k string, v []*geo.Boundary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := entry{k: k, v: v, exp: c.now().Add(c.ttl)}
	if e, ok := c.dict[k]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry).k)
		c.lst.Remove(back)
	}
}

// Has 未过期即为已缓存，不影响 LRU 顺序
func (c *LRU) Has(k string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	return ok && c.now().Before(e.Value.(entry).exp)
}

func (c *LRU) Delete(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		c.lst.Remove(e)
		delete(c.dict, k)
	}
}

func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lst.Init()
	c.dict = make(map[string]*list.Element)
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
