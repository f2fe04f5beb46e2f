package render

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/heatmap"
	"diocese-atlas/internal/match"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/stats"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(name string, x0, y0, x1, y1 float64) *geo.Boundary {
	ring := orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
	return geo.NewBoundary(name, "Italy", orb.Polygon{ring}, nil)
}

func rec(diocese string, lon, lat float64, catholics string) *record.Record {
	return &record.Record{
		Diocese: diocese, Country: "Italy", Year: "2020",
		Longitude: lon, Latitude: lat, Located: true,
		Values: map[string]string{"Catholics": catholics},
	}
}

type painted struct {
	color   string
	payload Payload
}

type recorder struct {
	mu  sync.Mutex
	got map[string]painted
	seq []string
}

func newRecorder() *recorder { return &recorder{got: make(map[string]painted)} }

func (r *recorder) Paint(b *geo.Boundary, color string, p Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got[b.Key] = painted{color: color, payload: p}
	r.seq = append(r.seq, b.Key)
	return nil
}

func noYield() Yielder { return YieldFunc(func() {}) }

// grid n 个互不相交的边界；第 0 个边界放一条记录，保证色阶非空
func grid(n int) ([]*geo.Boundary, *match.Set) {
	bs := make([]*geo.Boundary, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i * 10)
		bs = append(bs, box(fmt.Sprintf("B%d", i), x, 0, x+5, 5))
	}
	set := match.Records([]*record.Record{rec("D0", 1, 1, "5")}, bs, []string{"Italy"})
	return bs, set
}

func TestEndToEnd(t *testing.T) {
	a := box("A", 0, 0, 1, 1)
	b := box("B", 10, 10, 20, 20)
	records := []*record.Record{
		rec("D1", 11, 11, "100"),
		rec("D2", 12, 12, "200"),
		rec("D3", 13, 13, "300"),
	}
	set := match.Records(records, []*geo.Boundary{a, b}, []string{"Italy"})
	p := newRecorder()

	rep, ok := NewDriver(WithYielder(noYield())).Render(Pass{
		Boundaries: []*geo.Boundary{a, b},
		Matches:    set,
		Statistic:  "Catholics",
		History:    record.BuildIndex(records),
		Painter:    p,
	})
	require.True(t, ok)
	assert.False(t, rep.NothingToRender)
	assert.NotEmpty(t, rep.PassID)
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 2, rep.Painted)
	assert.Equal(t, 1, rep.WithData)
	require.NotNil(t, rep.Legend)
	assert.Equal(t, "600", rep.Legend.Min)
	assert.Equal(t, "600", rep.Legend.Max)

	assert.Equal(t, heatmap.NoDataColor, p.got[a.Key].color)
	assert.Equal(t, KindEmpty, p.got[a.Key].payload.Kind)
	assert.Equal(t, "A", p.got[a.Key].payload.Title)

	pb := p.got[b.Key]
	assert.Equal(t, heatmap.Palette[len(heatmap.Palette)-1], pb.color)
	assert.Equal(t, KindMulti, pb.payload.Kind)
	assert.Equal(t, 600.0, pb.payload.Value)
	assert.Equal(t, "600", pb.payload.Formatted)
	assert.Equal(t, "Total", pb.payload.Aggregation)
	assert.Equal(t, 3, pb.payload.Count)
	assert.Equal(t, "B", pb.payload.Region)
	assert.Len(t, pb.payload.Dioceses, 3)
	assert.Equal(t, []string{a.Key, b.Key}, p.seq)
}

func TestSinglePayloadWithHistory(t *testing.T) {
	b := box("Lazio", 0, 0, 10, 10)
	old := rec("Rome", 5, 5, "900")
	old.Year = "2019"
	cur := rec("Rome", 5, 5, "1,000")
	idx := record.BuildIndex([]*record.Record{old, cur})
	set := match.Records(idx.MostRecent(), []*geo.Boundary{b}, []string{"Italy"})
	p := newRecorder()

	_, ok := NewDriver(WithYielder(noYield())).Render(Pass{Boundaries: []*geo.Boundary{b}, Matches: set, Statistic: "Catholics", History: idx, Painter: p})
	require.True(t, ok)
	pl := p.got[b.Key].payload
	assert.Equal(t, KindSingle, pl.Kind)
	assert.Equal(t, "Rome", pl.Title)
	assert.True(t, pl.HasHistory)
	require.Len(t, pl.Dioceses, 1)
	d := pl.Dioceses[0]
	assert.Equal(t, "1,000", d.Value)
	require.Len(t, d.History, 2)
	assert.Equal(t, 2019, d.History[0].Year)
	require.NotNil(t, d.History[1].Value)
	assert.Equal(t, 1000.0, *d.History[1].Value)
}

func TestHistoryOfCapsPercent(t *testing.T) {
	h := []*record.Record{
		{Diocese: "X", Year: "2020", Values: map[string]string{"Percent Catholic": "140"}},
		{Diocese: "X", Year: "2021", Values: map[string]string{"Percent Catholic": ""}},
	}
	pct := mustStat(t, "Percent Catholic")
	pts := HistoryOf(h, pct)
	require.Len(t, pts, 2)
	require.NotNil(t, pts[0].Value)
	assert.Equal(t, 100.0, *pts[0].Value)
	assert.Nil(t, pts[1].Value)
}

func TestEmptyDomainPaintsNothing(t *testing.T) {
	b := box("A", 0, 0, 10, 10)
	set := match.Records([]*record.Record{rec("D", 1, 1, "n/a")}, []*geo.Boundary{b}, []string{"Italy"})
	calls := 0
	rep, ok := NewDriver().Render(Pass{
		Boundaries: []*geo.Boundary{b},
		Matches:    set,
		Statistic:  "Catholics",
		Painter:    PaintFunc(func(*geo.Boundary, string, Payload) error { calls++; return nil }),
	})
	require.True(t, ok)
	assert.True(t, rep.NothingToRender)
	assert.Nil(t, rep.Legend)
	assert.Zero(t, calls)
}

func TestUnknownStatistic(t *testing.T) {
	bs, set := grid(3)
	rep, ok := NewDriver().Render(Pass{Boundaries: bs, Matches: set, Statistic: "Bishops", Painter: newRecorder()})
	require.True(t, ok)
	assert.True(t, rep.NothingToRender)
}

func TestPaintFailuresIsolated(t *testing.T) {
	bs, set := grid(5)
	var painted []string
	p := PaintFunc(func(b *geo.Boundary, color string, pl Payload) error {
		switch b.Name {
		case "B1":
			return errors.New("boom")
		case "B3":
			panic("paint exploded")
		}
		painted = append(painted, b.Name)
		return nil
	})
	rep, ok := NewDriver(WithYielder(noYield())).Render(Pass{Boundaries: bs, Matches: set, Statistic: "Catholics", Painter: p})
	require.True(t, ok)
	assert.Equal(t, 2, rep.Failed)
	assert.Equal(t, 3, rep.Painted)
	assert.Equal(t, []string{"B0", "B2", "B4"}, painted)
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 20, ChunkSize(0))
	assert.Equal(t, 20, ChunkSize(500))
	assert.Equal(t, 15, ChunkSize(501))
	assert.Equal(t, 15, ChunkSize(1000))
	assert.Equal(t, 10, ChunkSize(1001))
}

func TestProgressAndYield(t *testing.T) {
	bs, set := grid(45)
	var progress []Progress
	yields := 0
	d := NewDriver(
		WithYielder(YieldFunc(func() { yields++ })),
		WithProgress(func(p Progress) { progress = append(progress, p) }),
	)
	rep, ok := d.Render(Pass{Boundaries: bs, Matches: set, Statistic: "Catholics", Painter: newRecorder()})
	require.True(t, ok)
	assert.Equal(t, 45, rep.Painted)
	assert.Equal(t, []Progress{{20, 45}, {40, 45}, {45, 45}}, progress)
	assert.Equal(t, 2, yields)
}

func TestConcurrentPassDropped(t *testing.T) {
	bs, set := grid(25)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	d := NewDriver(WithYielder(YieldFunc(func() {
		once.Do(func() { close(entered) })
		<-release
	})))
	pass := Pass{Boundaries: bs, Matches: set, Statistic: "Catholics", Painter: newRecorder()}

	done := make(chan Report, 1)
	go func() {
		rep, _ := d.Render(pass)
		done <- rep
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first pass never yielded")
	}
	assert.Equal(t, Rendering, d.State())
	_, ok := d.Render(pass)
	assert.False(t, ok)

	close(release)
	select {
	case rep := <-done:
		assert.Equal(t, 25, rep.Painted)
	case <-time.After(5 * time.Second):
		t.Fatal("first pass never finished")
	}
	assert.Equal(t, Idle, d.State())

	_, ok = d.Render(pass)
	assert.True(t, ok)
}

func mustStat(t *testing.T, name string) stats.Statistic {
	t.Helper()
	s, ok := stats.Lookup(name)
	require.True(t, ok)
	return s
}
