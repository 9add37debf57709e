package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"store-map/internal/logger"
	"store-map/internal/metrics"
)

var (
	ErrEmptyQuery   = errors.New("places: empty query")
	ErrNoProvider   = errors.New("places: no healthy provider")
	ErrSearchFailed = errors.New("places: all providers failed")
)

// 文档注释：搜索提供方接口
// 约束：Search 返回零结果不是错误；Heartbeat 用于健康检测，失败的提供方不参与搜索
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Place, error)
	Heartbeat(ctx context.Context) error
}

// 文档注释：提供方管理器
// 约束：按注册顺序尝试健康提供方，返回首个成功结果；心跳周期默认 30s；线程安全
type Manager struct {
	mu         sync.RWMutex
	ps         []Provider
	healthy    map[string]bool
	hbInterval time.Duration
	cache      *Cache
}

func NewManager(cache *Cache) *Manager {
	return &Manager{healthy: make(map[string]bool), hbInterval: 30 * time.Second, cache: cache}
}

// Register：注册后默认视为健康
func (m *Manager) Register(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.ps {
		if old.Name() == p.Name() {
			m.ps[i] = p
			m.healthy[p.Name()] = true
			return
		}
	}
	m.ps = append(m.ps, p)
	m.healthy[p.Name()] = true
	logger.L().Info("provider_registered", "name", p.Name())
}

// Healthy：按注册顺序返回健康提供方
func (m *Manager) Healthy() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Provider
	for _, p := range m.ps {
		if m.healthy[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// Start：后台心跳循环，ctx 取消时退出
func (m *Manager) Start(ctx context.Context) {
	t := time.NewTicker(m.hbInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Heartbeat(ctx)
			}
		}
	}()
}

// Heartbeat：对全部提供方执行一次心跳并更新健康状态
func (m *Manager) Heartbeat(ctx context.Context) {
	m.mu.RLock()
	ps := append([]Provider(nil), m.ps...)
	m.mu.RUnlock()
	results := make(map[string]bool, len(ps))
	for _, p := range ps {
		if err := p.Heartbeat(ctx); err != nil {
			results[p.Name()] = false
			logger.L().Debug("provider_heartbeat_fail", "name", p.Name(), "err", err)
			metrics.ProviderHeartbeatTotal.WithLabelValues(p.Name(), "fail").Inc()
			continue
		}
		results[p.Name()] = true
		metrics.ProviderHeartbeatTotal.WithLabelValues(p.Name(), "ok").Inc()
	}
	m.mu.Lock()
	for k, v := range results {
		m.healthy[k] = v
	}
	m.mu.Unlock()
}

// Search：缓存优先；缓存仅写入非空结果
// 返回：结果与产生结果的提供方名称（缓存命中时为 "cache"）
func (m *Manager) Search(ctx context.Context, q Query) ([]Place, string, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, "", ErrEmptyQuery
	}
	query := q.Text
	if ps, ok := m.cache.Get(ctx, q); ok {
		return ps, "cache", nil
	}
	hs := m.Healthy()
	if len(hs) == 0 {
		return nil, "", ErrNoProvider
	}
	var lastErr error
	for _, p := range hs {
		t0 := time.Now()
		metrics.SearchRequestsTotal.WithLabelValues(p.Name()).Inc()
		res, err := p.Search(ctx, q)
		metrics.SearchDurationMs.WithLabelValues(p.Name()).Observe(float64(time.Since(t0).Milliseconds()))
		if err != nil {
			metrics.SearchFailTotal.WithLabelValues(p.Name()).Inc()
			logger.L().Warn("provider_search_error", "name", p.Name(), "query", query, "err", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(res) > 0 {
			if err := m.cache.Set(ctx, q, res); err != nil {
				logger.L().Warn("places_cache_set_error", "err", err)
			}
		}
		logger.L().Debug("provider_search_ok", "name", p.Name(), "query", query, "results", len(res))
		return res, p.Name(), nil
	}
	return nil, "", fmt.Errorf("%w: %w", ErrSearchFailed, lastErr)
}
