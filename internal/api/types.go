package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"store-map/internal/mapview"
	"store-map/internal/places"
)

// 文档注释：对外返回结构
// 约束：坐标一律拆成 lat/lon 字段，不暴露 orb 的 [lon, lat] 数组顺序
type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type boundDTO struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

type viewportDTO struct {
	Center latLon    `json:"center"`
	Zoom   int       `json:"zoom"`
	Bound  *boundDTO `json:"bound,omitempty"`
}

type markerDTO struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Color   string  `json:"color"`
	Visible bool    `json:"visible"`
}

type placeDTO struct {
	Name     string    `json:"name"`
	Address  string    `json:"address,omitempty"`
	Provider string    `json:"provider"`
	Location *latLon   `json:"location,omitempty"`
	Viewport *boundDTO `json:"viewport,omitempty"`
}

type searchResult struct {
	Query    string      `json:"query"`
	Provider string      `json:"provider"`
	Results  []placeDTO  `json:"results"`
	Fitted   bool        `json:"fitted"`
	Viewport viewportDTO `json:"viewport"`
}

type clientConfig struct {
	MapsAPIKey string `json:"maps_api_key"`
	Center     latLon `json:"center"`
	Zoom       int    `json:"zoom"`
	CenterFrom string `json:"center_from"`
}

var errBadBounds = errors.New("api: bad bounds")

// parseBounds：解析 "south,west,north,east"
func parseBounds(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errBadBounds
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, errBadBounds
		}
		v[i] = f
	}
	south, west, north, east := v[0], v[1], v[2], v[3]
	if south > north || west > east || south < -90 || north > 90 || west < -180 || east > 180 {
		return orb.Bound{}, errBadBounds
	}
	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}, nil
}

func toLatLon(p orb.Point) latLon { return latLon{Lat: p.Lat(), Lon: p.Lon()} }

func toBound(b orb.Bound) *boundDTO {
	return &boundDTO{South: b.Min.Lat(), West: b.Min.Lon(), North: b.Max.Lat(), East: b.Max.Lon()}
}

func toViewport(v mapview.Viewport) viewportDTO {
	out := viewportDTO{Center: toLatLon(v.Center), Zoom: v.Zoom}
	if v.Bound != nil {
		out.Bound = toBound(*v.Bound)
	}
	return out
}

func toMarkers(ms []mapview.Marker) []markerDTO {
	out := make([]markerDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, markerDTO{
			ID:      m.Record.ID,
			Source:  m.Record.SourceName,
			Lat:     m.Record.Lat,
			Lon:     m.Record.Lon,
			Color:   m.Record.Color,
			Visible: m.Visible,
		})
	}
	return out
}

func toPlaces(ps []places.Place) []placeDTO {
	out := make([]placeDTO, 0, len(ps))
	for _, p := range ps {
		d := placeDTO{Name: p.Name, Address: p.Address, Provider: p.Provider}
		if p.HasLocation {
			ll := toLatLon(p.Location)
			d.Location = &ll
		}
		if p.Viewport != nil {
			d.Viewport = toBound(*p.Viewport)
		}
		out = append(out, d)
	}
	return out
}
