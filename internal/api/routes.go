// 包 api：集中注册 HTTP API 路由以解耦主入口；页面的加载、开关、搜索交互均经由此处
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"

	"store-map/internal/app"
	"store-map/internal/logger"
	"store-map/internal/mapview"
	"store-map/internal/places"
	"store-map/internal/visibility"
)

// Searcher：地点搜索，由 places.Manager 满足
type Searcher interface {
	Search(ctx context.Context, q places.Query) ([]places.Place, string, error)
}

// Locator：访问者 IP → 地图中心，由 geoip.Locator 满足
type Locator interface {
	Center(ip string) (orb.Point, bool)
}

// Deps：路由依赖；Search 与 Geo 可为空
type Deps struct {
	App           *app.Controller
	Map           *mapview.Map
	Search        Searcher
	Geo           Locator
	MapsAPIKey    string
	DefaultCenter orb.Point
	DefaultZoom   int
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

// BuildRoutes：构建并返回 API 路由；独立 ServeMux 便于在主入口挂载到 API 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.App.State())
	})

	apiMux.HandleFunc("GET /stores", func(w http.ResponseWriter, r *http.Request) {
		st := d.App.State()
		if st.Status == app.StatusFailed || st.Status == app.StatusLoading {
			writeJSON(w, http.StatusServiceUnavailable, st)
			return
		}
		writeJSON(w, http.StatusOK, d.App.Records())
	})

	apiMux.HandleFunc("GET /legend", func(w http.ResponseWriter, r *http.Request) {
		m, ok := d.App.Legend()
		if !ok {
			writeError(w, http.StatusNotFound, "store data not loaded")
			return
		}
		switch r.URL.Query().Get("format") {
		case "text":
			w.Header().Set("content-type", "text/plain; charset=utf-8")
			w.Header().Set("cache-control", "no-store")
			_, _ = w.Write([]byte(m.Text()))
		case "html":
			w.Header().Set("content-type", "text/html; charset=utf-8")
			w.Header().Set("cache-control", "no-store")
			_, _ = w.Write([]byte(m.HTML()))
		default:
			writeJSON(w, http.StatusOK, m)
		}
	})

	apiMux.HandleFunc("GET /toggles", func(w http.ResponseWriter, r *http.Request) {
		es, ok := d.App.Toggles()
		if !ok {
			writeError(w, http.StatusNotFound, "toggles unavailable")
			return
		}
		writeJSON(w, http.StatusOK, es)
	})

	// 约束：缺省 visible 参数时取反当前状态
	apiMux.HandleFunc("POST /toggles/{key}", func(w http.ResponseWriter, r *http.Request) {
		ev := app.ToggleRequested{Key: r.PathValue("key"), Flip: true}
		if s := r.URL.Query().Get("visible"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "visible must be true or false")
				return
			}
			ev.Visible, ev.Flip = v, false
		}
		key := ev.Key
		_, err := d.App.Apply(r.Context(), ev)
		switch {
		case errors.Is(err, visibility.ErrUnknownKey):
			writeError(w, http.StatusNotFound, "unknown source: "+key)
			return
		case errors.Is(err, app.ErrNotReady):
			writeError(w, http.StatusConflict, "store data not ready")
			return
		case err != nil:
			logger.L().Error("toggle_error", "key", key, "err", err)
			writeError(w, http.StatusInternalServerError, "toggle failed")
			return
		}
		es, _ := d.App.Toggles()
		writeJSON(w, http.StatusOK, es)
	})

	// 约束：bounds=south,west,north,east 显式指定偏置视窗，缺省时使用当前视窗
	apiMux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		if d.Search == nil {
			writeError(w, http.StatusServiceUnavailable, "search disabled")
			return
		}
		q := places.Query{Text: r.URL.Query().Get("q"), Bias: d.Map.Viewport().Bound}
		if s := r.URL.Query().Get("bounds"); s != "" {
			b, err := parseBounds(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bounds must be south,west,north,east")
				return
			}
			q.Bias = &b
		}
		res, provider, err := d.Search.Search(r.Context(), q)
		switch {
		case errors.Is(err, places.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "missing query")
			return
		case errors.Is(err, places.ErrNoProvider):
			writeError(w, http.StatusServiceUnavailable, "no search provider available")
			return
		case err != nil:
			writeError(w, http.StatusBadGateway, "search failed")
			return
		}
		out, err := d.App.Apply(r.Context(), app.SearchCompleted{Results: res})
		if err != nil {
			logger.L().Warn("search_dispatch_error", "err", err)
		}
		writeJSON(w, http.StatusOK, searchResult{
			Query:    q.Text,
			Provider: provider,
			Results:  toPlaces(res),
			Fitted:   out.Fitted,
			Viewport: toViewport(d.Map.Viewport()),
		})
	})

	apiMux.HandleFunc("GET /map", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"markers":  toMarkers(d.Map.Markers()),
			"viewport": toViewport(d.Map.Viewport()),
		})
	})

	apiMux.HandleFunc("GET /config", func(w http.ResponseWriter, r *http.Request) {
		c := clientConfig{
			MapsAPIKey: d.MapsAPIKey,
			Center:     toLatLon(d.DefaultCenter),
			Zoom:       d.DefaultZoom,
			CenterFrom: "default",
		}
		if d.Geo != nil {
			if p, ok := d.Geo.Center(getClientIP(r)); ok {
				c.Center = toLatLon(p)
				c.CenterFrom = "geoip"
			}
		}
		writeJSON(w, http.StatusOK, c)
	})

	return apiMux
}
