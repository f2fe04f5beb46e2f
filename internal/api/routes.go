// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"diocese-atlas/internal/atlas"
	"diocese-atlas/internal/heatmap"
	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/region"
	"diocese-atlas/internal/render"
	"diocese-atlas/internal/stats"

	"github.com/paulmach/orb/geojson"
)

type statisticView struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Mode        string `json:"mode"`
	Aggregation string `json:"aggregation"`
	Percent     bool   `json:"percent"`
	Default     bool   `json:"default"`
}

type searchHit struct {
	ID           string  `json:"id"`
	Diocese      string  `json:"diocese"`
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	Year         string  `json:"year"`
	Jurisdiction string  `json:"jurisdiction"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Located      bool    `json:"located"`
}

type renderResponse struct {
	atlas.Result
	Legend   *heatmap.Legend            `json:"legend,omitempty"`
	Features *geojson.FeatureCollection `json:"features"`
}

type historyResponse struct {
	ID        string                `json:"id"`
	Statistic string                `json:"statistic"`
	Points    []render.HistoryPoint `json:"points"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// splitList 逗号分隔列表，去空白与空项
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hitOf(r *record.Record) searchHit {
	return searchHit{
		ID: r.Identity(), Diocese: r.Diocese, Name: r.Name, Country: r.Country, Year: r.Year,
		Jurisdiction: r.Jurisdiction, Latitude: r.Latitude, Longitude: r.Longitude, Located: r.Located,
	}
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
// loader 为 nil 或 adminToken 为空时不注册 /reload；/reload 需携带 x-admin-token
func BuildRoutes(svc *atlas.Service, loader atlas.RecordLoader, adminToken string) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("GET /statistics", func(w http.ResponseWriter, r *http.Request) {
		all := stats.All()
		out := make([]statisticView, 0, len(all))
		for _, s := range all {
			out = append(out, statisticView{
				Name: s.Name, Label: s.Label, Mode: s.Mode.String(), Aggregation: s.AggregationLabel(),
				Percent: s.Bounded(), Default: s.Name == svc.DefaultStatistic(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	})

	apiMux.HandleFunc("GET /continents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, append([]string{region.All}, region.Continents()...))
	})

	apiMux.HandleFunc("GET /countries", func(w http.ResponseWriter, r *http.Request) {
		all, err := svc.Countries(r.Context())
		if err != nil {
			logger.L().Error("countries_error", "err", err)
			writeError(w, http.StatusInternalServerError, "boundary source unavailable")
			return
		}
		q := r.URL.Query()
		out := region.Match(region.Filter(all, q.Get("continent")), q.Get("q"))
		if out == nil {
			out = []string{}
		}
		writeJSON(w, http.StatusOK, out)
	})

	apiMux.HandleFunc("GET /render", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sel := atlas.Selection{
			Countries: splitList(q.Get("countries")),
			Continent: q.Get("continent"),
			Statistic: q.Get("stat"),
		}
		fc := NewFeatureCollector()
		res, err := svc.Render(r.Context(), sel, fc)
		switch {
		case errors.Is(err, stats.ErrUnknownStatistic):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, atlas.ErrNoSelection):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logger.L().Error("render_error", "err", err)
			writeError(w, http.StatusInternalServerError, "render failed")
			return
		}
		if res.Skipped {
			writeJSON(w, http.StatusConflict, map[string]any{"skipped": true, "error": "render in progress"})
			return
		}
		writeJSON(w, http.StatusOK, renderResponse{Result: res, Legend: res.Report.Legend, Features: fc.Collection()})
	})

	apiMux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		hits := svc.Index().Search(r.URL.Query().Get("q"))
		out := make([]searchHit, 0, len(hits))
		for _, h := range hits {
			out = append(out, hitOf(h))
		}
		writeJSON(w, http.StatusOK, out)
	})

	apiMux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id := strings.TrimSpace(q.Get("id"))
		name := q.Get("stat")
		if name == "" {
			name = svc.DefaultStatistic()
		}
		stat, ok := stats.Lookup(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown statistic")
			return
		}
		h := svc.Index().History(id)
		if len(h) == 0 {
			writeError(w, http.StatusNotFound, "diocese not found")
			return
		}
		resp := historyResponse{ID: id, Statistic: stat.Name, Points: render.HistoryOf(h, stat)}
		writeJSON(w, http.StatusOK, resp)
	})

	apiMux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		state := render.Idle
		if svc.Busy() {
			state = render.Rendering
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": state.String(), "dioceses": svc.Index().Len()})
	})

	if loader != nil && adminToken != "" {
		apiMux.HandleFunc("POST /reload", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-admin-token") != adminToken {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if err := svc.Reload(r.Context(), loader); err != nil {
				logger.L().Error("reload_error", "err", err)
				writeError(w, http.StatusInternalServerError, "reload failed")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"dioceses": svc.Index().Len()})
		})
	}

	return apiMux
}
