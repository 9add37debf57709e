// 包 places：地点搜索（Google Places / 高德），结果用于地图视窗适配
package places

import (
	"github.com/paulmach/orb"
)

// Place：单个搜索结果
// 约束：Location 与 Viewport 均为 WGS84（经度, 纬度）；HasLocation=false 且 Viewport 为空时视为无几何
type Place struct {
	Name        string
	Address     string
	Provider    string
	Location    orb.Point
	HasLocation bool
	Viewport    *orb.Bound
}

// Geometry：优先返回 viewport 区域，其次点位
func (p Place) Geometry() (orb.Bound, bool) {
	if p.Viewport != nil {
		return *p.Viewport, true
	}
	if p.HasLocation {
		return p.Location.Bound(), true
	}
	return orb.Bound{}, false
}

// Query：搜索关键字与可选的视窗偏置（WGS84）
// 约束：Bias 仅影响排序与召回范围，不过滤结果
type Query struct {
	Text string
	Bias *orb.Bound
}

// cachedPlace：缓存序列化结构
type cachedPlace struct {
	Name     string      `json:"name"`
	Address  string      `json:"address,omitempty"`
	Provider string      `json:"provider"`
	Location *[2]float64 `json:"location,omitempty"`
	Viewport *[4]float64 `json:"viewport,omitempty"` // minLon, minLat, maxLon, maxLat
}

func toCached(ps []Place) []cachedPlace {
	out := make([]cachedPlace, 0, len(ps))
	for _, p := range ps {
		c := cachedPlace{Name: p.Name, Address: p.Address, Provider: p.Provider}
		if p.HasLocation {
			loc := [2]float64{p.Location.Lon(), p.Location.Lat()}
			c.Location = &loc
		}
		if p.Viewport != nil {
			vp := [4]float64{p.Viewport.Min.Lon(), p.Viewport.Min.Lat(), p.Viewport.Max.Lon(), p.Viewport.Max.Lat()}
			c.Viewport = &vp
		}
		out = append(out, c)
	}
	return out
}

func fromCached(cs []cachedPlace) []Place {
	out := make([]Place, 0, len(cs))
	for _, c := range cs {
		p := Place{Name: c.Name, Address: c.Address, Provider: c.Provider}
		if c.Location != nil {
			p.Location = orb.Point{c.Location[0], c.Location[1]}
			p.HasLocation = true
		}
		if c.Viewport != nil {
			b := orb.Bound{Min: orb.Point{c.Viewport[0], c.Viewport[1]}, Max: orb.Point{c.Viewport[2], c.Viewport[3]}}
			p.Viewport = &b
		}
		out = append(out, p)
	}
	return out
}
