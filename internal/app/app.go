// 包 app：应用状态对象；持有数据集、分组、可见状态与面板模型，串行处理加载与界面事件
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"store-map/internal/grouping"
	"store-map/internal/legend"
	"store-map/internal/logger"
	"store-map/internal/mapview"
	"store-map/internal/metrics"
	"store-map/internal/places"
	"store-map/internal/stores"
	"store-map/internal/visibility"
)

var (
	ErrAlreadyLoaded = errors.New("app: already loaded")
	ErrNotReady      = errors.New("app: store data not ready")
	ErrUnknownEvent  = errors.New("app: unknown event")
)

// Status：数据加载状态
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// State：页面可见的加载状态；Failed 为持久告警，Empty 为提示信息
type State struct {
	Status   Status    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Records  int       `json:"records"`
	Groups   int       `json:"groups"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Source：数据集来源，由 stores.Loader 满足
type Source interface {
	Load(ctx context.Context) ([]stores.Record, error)
}

// Event：界面语义事件
type Event interface{ isEvent() }

// ToggleRequested：切换某来源可见状态；Flip=true 时忽略 Visible，在锁内取反当前状态
type ToggleRequested struct {
	Key     string
	Visible bool
	Flip    bool
}

// SearchCompleted：地点搜索已选定结果
type SearchCompleted struct {
	Results []places.Place
}

func (ToggleRequested) isEvent() {}
func (SearchCompleted) isEvent() {}

// Outcome：事件实际产生的效果
// 约束：Visible 仅对 ToggleRequested 有意义；Fitted 为地图门面是否调整了视窗
type Outcome struct {
	Visible bool
	Fitted  bool
}

// Controller：唯一的状态持有者
// 约束：Load 与 Dispatch 在同一把锁下串行执行；标记只在 Load 时创建一次
type Controller struct {
	mu      sync.Mutex
	adapter mapview.Adapter
	src     Source

	loaded  bool
	state   State
	records []stores.Record
	groups  *grouping.Groups
	vis     *visibility.Controller
	legend  legend.Model
}

func New(adapter mapview.Adapter, src Source) *Controller {
	return &Controller{adapter: adapter, src: src, state: State{Status: StatusLoading}}
}

// Load：获取数据集 → 分组 → 创建标记 → 初始化可见状态 → 生成面板
// 约束：仅执行一次；获取数据集时不持锁，期间状态为 loading 且开关返回 ErrNotReady
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return ErrAlreadyLoaded
	}
	c.loaded = true
	c.mu.Unlock()

	records, err := c.src.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case errors.Is(err, stores.ErrEmptyDataset):
		c.groups = grouping.BySource(nil)
		c.legend = legend.Render(c.groups)
		c.state = State{Status: StatusEmpty, Message: "No store data available", LoadedAt: time.Now()}
		metrics.StoreRecordsLoaded.Set(0)
		metrics.StoreGroups.Set(0)
		logger.L().Info("app_load_empty")
		return err
	case err != nil:
		c.state = State{Status: StatusFailed, Message: "Could not load store data", LoadedAt: time.Now()}
		logger.L().Error("app_load_failed", "err", err)
		return err
	}

	c.records = records
	c.groups = grouping.BySource(records)
	handles := make(map[string][]mapview.MarkerHandle, c.groups.Len())
	for _, r := range records {
		handles[r.SourceName] = append(handles[r.SourceName], c.adapter.CreateMarker(r))
	}
	c.vis = visibility.New(c.adapter, handles)
	if err := c.vis.Initialize(c.groups.Keys()); err != nil {
		c.vis = nil
		c.state = State{Status: StatusFailed, Message: "Could not initialize store toggles", LoadedAt: time.Now()}
		return fmt.Errorf("app: initialize visibility: %w", err)
	}
	c.legend = legend.Render(c.groups)
	c.state = State{
		Status:   StatusReady,
		Records:  len(records),
		Groups:   c.groups.Len(),
		LoadedAt: time.Now(),
	}
	metrics.StoreRecordsLoaded.Set(float64(len(records)))
	metrics.StoreGroups.Set(float64(c.groups.Len()))
	logger.L().Info("app_load_ok", "records", len(records), "groups", c.groups.Len())
	return nil
}

// Dispatch：处理单个界面事件
// 返回：ToggleRequested 在数据未就绪时返回 ErrNotReady；SearchCompleted 零结果时不调整视窗且不报错
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	_, err := c.Apply(ctx, ev)
	return err
}

// Apply：同 Dispatch，并返回事件的实际效果；出错时 Outcome 为零值
func (c *Controller) Apply(ctx context.Context, ev Event) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e := ev.(type) {
	case ToggleRequested:
		if c.vis == nil {
			return Outcome{}, ErrNotReady
		}
		visible := e.Visible
		if e.Flip {
			visible = !c.vis.IsVisible(e.Key)
		}
		if err := c.vis.SetVisible(e.Key, visible); err != nil {
			return Outcome{}, err
		}
		return Outcome{Visible: visible}, nil
	case SearchCompleted:
		if len(e.Results) == 0 {
			return Outcome{}, nil
		}
		srcs := make([]mapview.BoundsSource, 0, len(e.Results))
		for _, p := range e.Results {
			srcs = append(srcs, p)
		}
		return Outcome{Fitted: c.adapter.FitBounds(srcs)}, nil
	}
	return Outcome{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Legend：ok=false 表示数据尚未成功获取（加载中或失败）
func (c *Controller) Legend() (legend.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groups == nil {
		return legend.Model{}, false
	}
	return c.legend, true
}

// Toggles：ok=false 表示开关面板不存在（未就绪、失败或空数据集）
func (c *Controller) Toggles() ([]visibility.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vis == nil {
		return nil, false
	}
	return c.vis.State(), true
}

func (c *Controller) IsVisible(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vis == nil {
		return false
	}
	return c.vis.IsVisible(key)
}

// Records：已加载记录（副本）
func (c *Controller) Records() []stores.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]stores.Record, len(c.records))
	copy(out, c.records)
	return out
}
