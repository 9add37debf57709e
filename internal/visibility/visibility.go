// 包 visibility：按来源维护可见状态，并驱动地图门面显示/隐藏对应标记
package visibility

import (
	"errors"
	"fmt"
	"strconv"

	"store-map/internal/logger"
	"store-map/internal/mapview"
	"store-map/internal/metrics"
)

var (
	ErrNotInitialized     = errors.New("visibility: not initialized")
	ErrAlreadyInitialized = errors.New("visibility: already initialized")
	ErrUnknownKey         = errors.New("visibility: unknown key")
)

// Switch：标记显隐操作，由 mapview.Adapter 满足
type Switch interface {
	ShowMarker(h mapview.MarkerHandle)
	HideMarker(h mapview.MarkerHandle)
}

// Entry：单个来源的可见状态
type Entry struct {
	Key     string `json:"key"`
	Visible bool   `json:"visible"`
}

// Controller：来源键 → 可见状态
// 约束：状态键集合与 Initialize 传入的键集合一致，不产生孤立键；调用方负责串行化
type Controller struct {
	sw          Switch
	markers     map[string][]mapview.MarkerHandle
	state       map[string]bool
	order       []string
	initialized bool
}

// New：markers 为各来源已创建的标记句柄
func New(sw Switch, markers map[string][]mapview.MarkerHandle) *Controller {
	return &Controller{sw: sw, markers: markers, state: make(map[string]bool)}
}

// Initialize：全部键置为可见；仅允许调用一次
// 约束：存在标记的来源必须包含在 keys 中
func (c *Controller) Initialize(keys []string) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	st := make(map[string]bool, len(keys))
	order := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := st[k]; dup {
			continue
		}
		st[k] = true
		order = append(order, k)
	}
	for k := range c.markers {
		if _, ok := st[k]; !ok {
			return fmt.Errorf("%w: markers tracked for %q", ErrUnknownKey, k)
		}
	}
	c.state = st
	c.order = order
	c.initialized = true
	logger.L().Debug("visibility_init", "keys", len(order))
	return nil
}

// SetVisible：设置单个来源的可见状态，并对其全部标记转发显示/隐藏
// 约束：幂等；重复设置同一值仅产生冗余的显隐调用
func (c *Controller) SetVisible(key string, visible bool) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if _, ok := c.state[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	c.state[key] = visible
	for _, h := range c.markers[key] {
		if visible {
			c.sw.ShowMarker(h)
		} else {
			c.sw.HideMarker(h)
		}
	}
	metrics.TogglesTotal.WithLabelValues(strconv.FormatBool(visible)).Inc()
	logger.L().Debug("visibility_set", "source", key, "visible", visible, "markers", len(c.markers[key]))
	return nil
}

// IsVisible：未知来源或未初始化时返回 false
func (c *Controller) IsVisible(key string) bool {
	return c.state[key]
}

// State：按初始化顺序返回全部来源状态
func (c *Controller) State() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Entry{Key: k, Visible: c.state[k]})
	}
	return out
}
