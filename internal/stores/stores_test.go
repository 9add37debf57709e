package stores

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeepsInputOrder(t *testing.T) {
	in := `[
		{"lat": 28.61, "lon": 77.20, "source_name": "Blinkit", "store_id": "b-1", "color": "#D8C414"},
		{"lat": 19.07, "lon": 72.87, "source_name": "Zepto", "store_id": 42, "color": "#A10DA1"},
		{"lat": 12.97, "lon": 77.59, "source_name": "Blinkit", "store_id": "b-2", "color": "#D8C414"}
	]`
	recs, skipped, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, recs, 3)
	assert.Equal(t, "b-1", recs[0].ID)
	assert.Equal(t, "42", recs[1].ID)
	assert.Equal(t, "Zepto", recs[1].SourceName)
	assert.InDelta(t, 77.59, recs[2].Lon, 1e-9)
}

func TestDecodeSkipsMalformedRecords(t *testing.T) {
	in := `[
		{"lon": 77.20, "source_name": "Blinkit", "store_id": "no-lat"},
		{"lat": 28.61, "lon": 77.20, "source_name": "", "store_id": "no-source"},
		{"lat": 128.61, "lon": 77.20, "source_name": "Swiggy", "store_id": "bad-lat"},
		{"lat": "28.62", "lon": 77.20, "source_name": "Zepto", "store_id": "string-lat"},
		{"lat": 28.61, "lon": 77.20, "source_name": 5, "store_id": "numeric-source"},
		null,
		{"lat": 28.61, "lon": 77.20, "source_name": "Swiggy", "store_id": "ok", "color": "#EC822A"}
	]`
	recs, skipped, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 6, skipped)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].ID)
}

// 类型错误的记录不影响前后有效记录
func TestDecodeKeepsNeighboursOfMistypedRecord(t *testing.T) {
	in := `[
		{"lat": 28.61, "lon": 77.20, "source_name": "Blinkit", "store_id": "a"},
		{"lat": "28.62", "lon": 77.21, "source_name": "Blinkit", "store_id": "b"},
		{"lat": 19.07, "lon": 72.87, "source_name": "Swiggy", "store_id": 3}
	]`
	recs, skipped, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "3", recs[1].ID)
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, _, err := Decode(strings.NewReader(`{"not": "an array"}`))
	assert.ErrorIs(t, err, ErrDataLoad)
}

func TestLoaderLocalFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "stores.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"lat":1,"lon":2,"source_name":"X","store_id":"1","color":"#f00"}]`), 0o644))

	recs, err := NewLoader(p, time.Second).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "X", recs[0].SourceName)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.json"), time.Second).Load(context.Background())
	assert.ErrorIs(t, err, ErrDataLoad)
	assert.False(t, errors.Is(err, ErrEmptyDataset))
}

func TestLoaderEmptyDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	recs, err := NewLoader(srv.URL+"/stores.json", time.Second).Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.Empty(t, recs)
}

func TestLoaderHTTPStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewLoader(srv.URL+"/stores.json", time.Second).Load(context.Background())
	assert.ErrorIs(t, err, ErrDataLoad)
}

func TestLoaderNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewLoader(url+"/stores.json", time.Second).Load(context.Background())
	assert.ErrorIs(t, err, ErrDataLoad)
}
