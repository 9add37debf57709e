// 包 grouping：按 source_name 对门店记录分组，保持首次出现顺序
package grouping

import (
	"store-map/internal/logger"
	"store-map/internal/stores"
)

// Group：同一来源的门店集合
// 约束：DisplayColor 取该来源首条记录的颜色；Members 与输入顺序一致。
type Group struct {
	Key          string
	DisplayColor string
	Members      []stores.Record
	// 与 DisplayColor 不一致的成员条数，仅用于诊断
	ColorMismatches int
}

func (g *Group) Count() int { return len(g.Members) }

// Groups：按插入顺序索引的分组结果
type Groups struct {
	order []string
	byKey map[string]*Group
}

// BySource：单次遍历完成分组；空输入返回空结果
func BySource(records []stores.Record) *Groups {
	gs := &Groups{byKey: make(map[string]*Group)}
	for _, r := range records {
		g, ok := gs.byKey[r.SourceName]
		if !ok {
			g = &Group{Key: r.SourceName, DisplayColor: r.Color}
			gs.byKey[r.SourceName] = g
			gs.order = append(gs.order, r.SourceName)
		} else if r.Color != g.DisplayColor {
			g.ColorMismatches++
		}
		g.Members = append(g.Members, r)
	}
	for _, k := range gs.order {
		if n := gs.byKey[k].ColorMismatches; n > 0 {
			logger.L().Debug("group_color_mismatch", "source", k, "color", gs.byKey[k].DisplayColor, "mismatches", n)
		}
	}
	return gs
}

// Keys：插入顺序的来源键（副本）
func (gs *Groups) Keys() []string {
	out := make([]string, len(gs.order))
	copy(out, gs.order)
	return out
}

func (gs *Groups) Get(key string) (*Group, bool) {
	g, ok := gs.byKey[key]
	return g, ok
}

func (gs *Groups) Len() int { return len(gs.order) }

// Total：全部分组成员数之和
func (gs *Groups) Total() int {
	n := 0
	for _, g := range gs.byKey {
		n += len(g.Members)
	}
	return n
}

// Each：按插入顺序遍历
func (gs *Groups) Each(fn func(g *Group)) {
	for _, k := range gs.order {
		fn(gs.byKey[k])
	}
}
