package atlas

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"diocese-atlas/internal/boundary"
	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/heatmap"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/render"
	"diocese-atlas/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const italy = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME":"Lazio","COUNTRY":"Italy"},
  "geometry":{"type":"Polygon","coordinates":[[[12,41],[14,41],[14,43],[12,43],[12,41]]]}},
 {"type":"Feature","properties":{"NAME":"Sicily","COUNTRY":"Italy"},
  "geometry":{"type":"Polygon","coordinates":[[[13,37],[15,37],[15,38],[13,38],[13,37]]]}}
]}`

const france = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME":"Brittany","COUNTRY":"France"},
  "geometry":{"type":"Polygon","coordinates":[[[-5,47],[-1,47],[-1,49],[-5,49],[-5,47]]]}}
]}`

func row(diocese, country, year, lat, lon, catholics string) *record.Record {
	return record.FromRow(map[string]string{
		record.ColDiocese: diocese, record.ColCountry: country, record.ColYear: year,
		record.ColLatitude: lat, record.ColLongitude: lon, "Catholics": catholics,
	})
}

func records() StaticLoader {
	return StaticLoader{
		row("Rome", "Italy", "2019", "41.9", "12.5", "1,900,000"),
		row("Rome", "Italy", "2020", "41.9", "12.5", "2,000,000"),
		row("Palermo", "Italy", "2020", "37.5", "14", "800,000"),
		row("Paris", "France", "2020", "48.85", "2.35", "1,300,000"),
	}
}

func newService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "italy.geojson"), []byte(italy), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "france.geojson"), []byte(france), 0o644))
	reg := boundary.NewRegistry(boundary.NewDirSource(dir), nil, boundary.Options{})
	svc := New(reg, render.NewDriver(render.WithYielder(render.YieldFunc(func() {}))), "")
	require.NoError(t, svc.Reload(context.Background(), records()))
	return svc
}

type colors struct {
	mu sync.Mutex
	by map[string]string
}

func (c *colors) Paint(b *geo.Boundary, color string, p render.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.by == nil {
		c.by = make(map[string]string)
	}
	c.by[b.Key] = color
	return nil
}

func TestRenderCountries(t *testing.T) {
	svc := newService(t)
	assert.Equal(t, 3, svc.Index().Len())
	p := &colors{}
	res, err := svc.Render(context.Background(), Selection{Countries: []string{"Italy", "italy"}}, p)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, []string{"Italy"}, res.Countries)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, "Catholics", res.Report.Statistic)
	assert.Equal(t, 2, res.Report.WithData)
	assert.Equal(t, heatmap.Palette[len(heatmap.Palette)-1], p.by["italy_lazio"])
	assert.Equal(t, heatmap.Palette[0], p.by["italy_sicily"])
	require.NotNil(t, res.Report.Legend)
	assert.Equal(t, "800,000", res.Report.Legend.Min)
	assert.Equal(t, "2,000,000", res.Report.Legend.Max)
}

func TestRenderContinent(t *testing.T) {
	svc := newService(t)
	p := &colors{}
	res, err := svc.Render(context.Background(), Selection{Continent: "Europe", Statistic: "Catholics"}, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"France", "Italy"}, res.Countries)
	assert.Equal(t, 3, res.Report.Painted)
	assert.Equal(t, heatmap.NoDataColor, p.by["france_brittany"])
}

func TestRenderPartialLoad(t *testing.T) {
	svc := newService(t)
	res, err := svc.Render(context.Background(), Selection{Countries: []string{"Spain", "Italy"}}, &colors{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Spain"}, res.Failed)
	assert.Equal(t, 2, res.Report.Painted)
}

func TestRenderErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Render(ctx, Selection{Countries: []string{"Italy"}, Statistic: "Bishops"}, &colors{})
	assert.ErrorIs(t, err, stats.ErrUnknownStatistic)

	_, err = svc.Render(ctx, Selection{}, &colors{})
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = svc.Render(ctx, Selection{Continent: "Atlantis"}, &colors{})
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestRenderNothingForEmptyValues(t *testing.T) {
	svc := newService(t)
	p := &colors{}
	res, err := svc.Render(context.Background(), Selection{Countries: []string{"Italy"}, Statistic: "Parishes"}, p)
	require.NoError(t, err)
	assert.True(t, res.Report.NothingToRender)
	assert.Empty(t, p.by)
}

func TestDefaultStatisticFallback(t *testing.T) {
	reg := boundary.NewRegistry(boundary.NewDirSource(t.TempDir()), nil, boundary.Options{})
	assert.Equal(t, stats.Default, New(reg, nil, "Bogus").DefaultStatistic())
	assert.Equal(t, "Parishes", New(reg, nil, "Parishes").DefaultStatistic())
	assert.False(t, New(reg, nil, "").Busy())
}

func TestCSVLoader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "d.csv")
	require.NoError(t, os.WriteFile(p, []byte("Diocese,Country,Year\nRome,Italy,2020\n"), 0o644))
	svc := New(boundary.NewRegistry(boundary.NewDirSource(t.TempDir()), nil, boundary.Options{}), nil, "")
	require.NoError(t, svc.Reload(context.Background(), CSVLoader{Path: p}))
	assert.Equal(t, 1, svc.Index().Len())
	assert.Error(t, svc.Reload(context.Background(), CSVLoader{Path: p + ".missing"}))
	assert.Equal(t, 1, svc.Index().Len())
}
