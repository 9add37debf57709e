// 包 mapview：地图渲染端的服务侧门面，持有点位标记的挂载状态与当前视窗
package mapview

import (
	"math"
	"sync"

	"github.com/paulmach/orb"

	"store-map/internal/logger"
	"store-map/internal/metrics"
	"store-map/internal/stores"
)

// MarkerHandle：标记句柄，与一条门店记录一一对应
type MarkerHandle int

// BoundsSource：搜索结果的几何来源；ok=false 表示无几何信息
// 约束：点位以零面积 Bound 表达，区域以其 viewport 表达
type BoundsSource interface {
	Geometry() (b orb.Bound, ok bool)
}

// Adapter：地图 SDK 门面
// 约束：ShowMarker/HideMarker 重复调用安全；FitBounds 自行完成结果并集，零结果时不调整视窗并返回 false
type Adapter interface {
	CreateMarker(r stores.Record) MarkerHandle
	ShowMarker(h MarkerHandle)
	HideMarker(h MarkerHandle)
	FitBounds(results []BoundsSource) bool
}

// Marker：标记快照
type Marker struct {
	Handle  MarkerHandle
	Record  stores.Record
	Visible bool
}

// Viewport：当前视窗；Bound 为空时表示仍是初始中心点视图
type Viewport struct {
	Center orb.Point
	Zoom   int
	Bound  *orb.Bound
}

const (
	minZoom = 1
	maxZoom = 17
)

// Map：Adapter 的内存实现，供页面按快照渲染
// 约束：标记创建后不会销毁；只改变挂载状态
type Map struct {
	mu       sync.RWMutex
	markers  []Marker
	viewport Viewport
}

// New：以初始中心（经度, 纬度）与缩放级别创建
func New(center orb.Point, zoom int) *Map {
	return &Map{viewport: Viewport{Center: center, Zoom: clampZoom(zoom)}}
}

// CreateMarker：新建标记，默认挂载到可见地图
func (m *Map) CreateMarker(r stores.Record) MarkerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := MarkerHandle(len(m.markers))
	m.markers = append(m.markers, Marker{Handle: h, Record: r, Visible: true})
	return h
}

func (m *Map) setVisible(h MarkerHandle, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h < 0 || int(h) >= len(m.markers) {
		logger.L().Warn("marker_unknown_handle", "handle", int(h))
		return
	}
	m.markers[h].Visible = v
}

func (m *Map) ShowMarker(h MarkerHandle) { m.setVisible(h, true) }
func (m *Map) HideMarker(h MarkerHandle) { m.setVisible(h, false) }

// FitBounds：视窗调整为全部结果几何的并集；无几何的结果被忽略
func (m *Map) FitBounds(results []BoundsSource) bool {
	b, ok := Union(results)
	if !ok {
		metrics.FitBoundsTotal.WithLabelValues("skipped").Inc()
		logger.L().Debug("fit_bounds_skip", "results", len(results))
		return false
	}
	m.mu.Lock()
	m.viewport = Viewport{Center: b.Center(), Zoom: ZoomFor(b), Bound: &b}
	m.mu.Unlock()
	metrics.FitBoundsTotal.WithLabelValues("applied").Inc()
	logger.L().Debug("fit_bounds_applied", "results", len(results),
		"min_lon", b.Min.Lon(), "min_lat", b.Min.Lat(), "max_lon", b.Max.Lon(), "max_lat", b.Max.Lat())
	return true
}

// Markers：标记快照（按创建顺序）
func (m *Map) Markers() []Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}

func (m *Map) Viewport() Viewport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.viewport
	if v.Bound != nil {
		b := *v.Bound
		v.Bound = &b
	}
	return v
}

// Union：多个结果几何的并集；全部无几何时 ok=false
func Union(results []BoundsSource) (orb.Bound, bool) {
	var out orb.Bound
	found := false
	for _, r := range results {
		if r == nil {
			continue
		}
		b, ok := r.Geometry()
		if !ok {
			continue
		}
		if !found {
			out = b
			found = true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

// ZoomFor：按经纬跨度估算能容纳 Bound 的缩放级别（Web 墨卡托瓦片，256px）
func ZoomFor(b orb.Bound) int {
	span := math.Max(b.Max.Lon()-b.Min.Lon(), b.Max.Lat()-b.Min.Lat())
	if span <= 0 {
		return maxZoom
	}
	return clampZoom(int(math.Floor(math.Log2(360 / span))))
}

func clampZoom(z int) int {
	if z < minZoom {
		return minZoom
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}
