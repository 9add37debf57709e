package grouping

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-map/internal/stores"
)

func rec(id, source, color string) stores.Record {
	return stores.Record{ID: id, SourceName: source, Color: color, Lat: 20, Lon: 78}
}

func ids(g *Group) []string {
	var out []string
	for _, m := range g.Members {
		out = append(out, m.ID)
	}
	return out
}

func TestBySourceFirstColorWins(t *testing.T) {
	gs := BySource([]stores.Record{
		rec("1", "X", "#f00"),
		rec("2", "Y", "#0f0"),
		rec("3", "X", "#fff"),
	})

	require.Equal(t, 2, gs.Len())
	assert.Equal(t, []string{"X", "Y"}, gs.Keys())

	x, ok := gs.Get("X")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "3"}, ids(x))
	assert.Equal(t, "#f00", x.DisplayColor)
	assert.Equal(t, 1, x.ColorMismatches)

	y, ok := gs.Get("Y")
	require.True(t, ok)
	assert.Equal(t, []string{"2"}, ids(y))
	assert.Equal(t, "#0f0", y.DisplayColor)
}

func TestBySourceEmpty(t *testing.T) {
	gs := BySource(nil)
	assert.Equal(t, 0, gs.Len())
	assert.Equal(t, 0, gs.Total())
	assert.Empty(t, gs.Keys())
}

func TestBySourceCountsCoverInput(t *testing.T) {
	sources := []string{"Blinkit", "Swiggy", "Zepto", "Swiggy", "Blinkit", "Blinkit", "Other"}
	var in []stores.Record
	distinct := map[string]bool{}
	for i, s := range sources {
		in = append(in, rec(fmt.Sprint(i), s, "#"+s))
		distinct[s] = true
	}
	gs := BySource(in)

	assert.Equal(t, len(distinct), gs.Len())
	assert.Equal(t, len(in), gs.Total())
	gs.Each(func(g *Group) {
		for _, m := range g.Members {
			assert.Equal(t, g.Key, m.SourceName)
		}
		assert.Equal(t, "#"+g.Key, g.DisplayColor)
	})
}

func TestKeysReturnsCopy(t *testing.T) {
	gs := BySource([]stores.Record{rec("1", "A", ""), rec("2", "B", "")})
	k := gs.Keys()
	k[0] = "mutated"
	assert.Equal(t, []string{"A", "B"}, gs.Keys())
}
