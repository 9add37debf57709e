package legend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"store-map/internal/grouping"
	"store-map/internal/stores"
)

func TestRenderScenario(t *testing.T) {
	gs := grouping.BySource([]stores.Record{
		{ID: "1", SourceName: "X", Color: "#f00"},
		{ID: "2", SourceName: "Y", Color: "#0f0"},
		{ID: "3", SourceName: "X", Color: "#fff"},
	})
	m := Render(gs)

	assert.Equal(t, []Entry{
		{Key: "X", Color: "#f00", Count: 2},
		{Key: "Y", Color: "#0f0", Count: 1},
	}, m.Entries)
	assert.Equal(t, 3, m.Total())
	assert.Equal(t, "X: 2\nY: 1", m.Text())
}

func TestRenderEmpty(t *testing.T) {
	m := Render(grouping.BySource(nil))
	assert.True(t, m.Empty())
	assert.NotNil(t, m.Entries)
	assert.Equal(t, "No data", m.Text())
	assert.Contains(t, m.HTML(), "No data")

	assert.True(t, Render(nil).Empty())
}

func TestHTMLEscapes(t *testing.T) {
	m := Model{Entries: []Entry{{Key: "<b>Swiggy</b>", Color: `red" onload="x`, Count: 4}}}
	out := m.HTML()
	assert.Contains(t, out, "&lt;b&gt;Swiggy&lt;/b&gt;: 4")
	assert.NotContains(t, out, `onload="x`)
	assert.Contains(t, out, "<h4>Store Counts</h4>")
}
