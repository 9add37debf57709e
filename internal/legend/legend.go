package legend

import (
	"html"
	"strconv"
	"strings"

	"store-map/internal/grouping"
)

// Entry：面板中的单行（来源、颜色、门店数）
type Entry struct {
	Key   string `json:"key"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// Model：面板展示模型，顺序与分组插入顺序一致
// 约束：Count 为目录总数，不随可见状态变化
type Model struct {
	Entries []Entry `json:"entries"`
}

// Render：由分组结果生成展示模型；纯函数
func Render(gs *grouping.Groups) Model {
	m := Model{Entries: []Entry{}}
	if gs == nil {
		return m
	}
	gs.Each(func(g *grouping.Group) {
		m.Entries = append(m.Entries, Entry{Key: g.Key, Color: g.DisplayColor, Count: g.Count()})
	})
	return m
}

func (m Model) Empty() bool { return len(m.Entries) == 0 }

func (m Model) Total() int {
	n := 0
	for _, e := range m.Entries {
		n += e.Count
	}
	return n
}

// Text：每行 "来源: 数量"；无数据时为 "No data"
func (m Model) Text() string {
	if m.Empty() {
		return "No data"
	}
	var b strings.Builder
	for i, e := range m.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Key)
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(e.Count))
	}
	return b.String()
}

// HTML：门店数面板片段，来源名与颜色均做转义
func (m Model) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="store-counts"><h4>Store Counts</h4>`)
	if m.Empty() {
		b.WriteString(`<p class="no-data">No data</p>`)
	}
	for _, e := range m.Entries {
		b.WriteString(`<p><span style="color:`)
		b.WriteString(html.EscapeString(e.Color))
		b.WriteString(`">&#9679;</span> `)
		b.WriteString(html.EscapeString(e.Key))
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(e.Count))
		b.WriteString("</p>")
	}
	b.WriteString("</div>")
	return b.String()
}
