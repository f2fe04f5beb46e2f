package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"diocese-atlas/internal/atlas"
	"diocese-atlas/internal/boundary"
	"diocese-atlas/internal/geo"
	"diocese-atlas/internal/heatmap"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/render"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME":"Lazio","COUNTRY":"Italy"},
  "geometry":{"type":"Polygon","coordinates":[[[12,41],[14,41],[14,43],[12,43],[12,41]]]}},
 {"type":"Feature","properties":{"NAME":"Sicily","COUNTRY":"Italy"},
  "geometry":{"type":"Polygon","coordinates":[[[13,37],[15,37],[15,38],[13,38],[13,37]]]}},
 {"type":"Feature","properties":{"NAME":"Brittany","COUNTRY":"France"},
  "geometry":{"type":"Polygon","coordinates":[[[-5,47],[-1,47],[-1,49],[-5,49],[-5,47]]]}}
]}`

func row(diocese, year, lat, lon, catholics, pct string) *record.Record {
	return record.FromRow(map[string]string{
		record.ColDiocese: diocese, record.ColCountry: "Italy", record.ColYear: year,
		record.ColLatitude: lat, record.ColLongitude: lon,
		"Catholics": catholics, "Percent Catholic": pct,
	})
}

var fixtureRecords = atlas.StaticLoader{
	row("Rome", "2019", "41.9", "12.5", "1,900,000", "120"),
	row("Rome", "2020", "41.9", "12.5", "2,000,000", "85"),
	row("Palermo", "2020", "37.5", "14", "800,000", "90"),
}

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world.geojson"), []byte(boundaries), 0o644))
	reg := boundary.NewRegistry(boundary.NewDirSource(dir), nil, boundary.Options{})
	svc := atlas.New(reg, render.NewDriver(render.WithYielder(render.YieldFunc(func() {}))), "Catholics")
	require.NoError(t, svc.Reload(context.Background(), fixtureRecords))
	return BuildRoutes(svc, fixtureRecords, "secret")
}

func get(t *testing.T, mux http.Handler, target string, out any) int {
	t.Helper()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr.Code
}

func TestStatistics(t *testing.T) {
	var out []statisticView
	require.Equal(t, http.StatusOK, get(t, newMux(t), "/statistics", &out))
	require.Len(t, out, 11)
	assert.Equal(t, "Catholics", out[0].Name)
	assert.True(t, out[0].Default)
	for _, s := range out {
		if s.Name == "Percent Catholic" {
			assert.True(t, s.Percent)
			assert.Equal(t, "avg", s.Mode)
		}
	}
}

func TestContinentsAndCountries(t *testing.T) {
	mux := newMux(t)
	var cont []string
	require.Equal(t, http.StatusOK, get(t, mux, "/continents", &cont))
	assert.Equal(t, "All", cont[0])

	var cs []string
	require.Equal(t, http.StatusOK, get(t, mux, "/countries", &cs))
	assert.Equal(t, []string{"France", "Italy"}, cs)
	require.Equal(t, http.StatusOK, get(t, mux, "/countries?continent=Europe&q=ita", &cs))
	assert.Equal(t, []string{"Italy"}, cs)
	require.Equal(t, http.StatusOK, get(t, mux, "/countries?continent=Asia", &cs))
	assert.Empty(t, cs)
}

func TestRender(t *testing.T) {
	var out struct {
		Report   render.Report              `json:"report"`
		Legend   *heatmap.Legend            `json:"legend"`
		Features *geojson.FeatureCollection `json:"features"`
	}
	require.Equal(t, http.StatusOK, get(t, newMux(t), "/render?stat=Catholics&countries=Italy,France", &out))
	assert.Equal(t, 3, out.Report.Painted)
	assert.Equal(t, 2, out.Report.WithData)
	require.NotNil(t, out.Legend)
	assert.Equal(t, "2,000,000", out.Legend.Max)
	require.Len(t, out.Features.Features, 3)

	fills := map[string]any{}
	for _, f := range out.Features.Features {
		fills[f.Properties.MustString("key")] = f.Properties["fill"]
	}
	assert.Equal(t, heatmap.Palette[len(heatmap.Palette)-1], fills["italy_lazio"])
	assert.Equal(t, heatmap.NoDataColor, fills["france_brittany"])
}

func TestRenderBadRequests(t *testing.T) {
	mux := newMux(t)
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/render?stat=Bishops&countries=Italy", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/render?stat=Catholics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, func() int {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/render", nil))
		return rr.Code
	}())
}

func TestSearchAndHistory(t *testing.T) {
	mux := newMux(t)
	var hits []searchHit
	require.Equal(t, http.StatusOK, get(t, mux, "/search?q=pal", &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Palermo", hits[0].ID)
	assert.True(t, hits[0].Located)

	require.Equal(t, http.StatusOK, get(t, mux, "/search?q=p", &hits))
	assert.Empty(t, hits)

	var h historyResponse
	require.Equal(t, http.StatusOK, get(t, mux, "/history?id=Rome&stat=Percent%20Catholic", &h))
	require.Len(t, h.Points, 2)
	assert.Equal(t, 2019, h.Points[0].Year)
	assert.Equal(t, 100.0, *h.Points[0].Value)
	assert.Equal(t, 85.0, *h.Points[1].Value)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/history?id=Milan", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/history?id=Rome&stat=Bishops", nil))
}

func TestStatusAndReload(t *testing.T) {
	mux := newMux(t)
	var st map[string]any
	require.Equal(t, http.StatusOK, get(t, mux, "/status", &st))
	assert.Equal(t, "idle", st["state"])
	assert.EqualValues(t, 2, st["dioceses"])

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/reload", nil)
	req.Header.Set("x-admin-token", "secret")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestFeatureCollectorRejectsMissingGeometry(t *testing.T) {
	fc := NewFeatureCollector()
	err := fc.Paint(geo.NewBoundary("X", "Italy", nil, nil), heatmap.NoDataColor, render.Payload{})
	assert.Error(t, err)
	assert.Equal(t, 0, fc.Len())
}
