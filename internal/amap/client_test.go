package amap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/place/text", r.URL.Path)
		assert.Equal(t, "k1", r.URL.Query().Get("key"))
		assert.Equal(t, "故宫", r.URL.Query().Get("keywords"))
		_, _ = w.Write([]byte(`{"status":"1","info":"OK","infocode":"10000","count":"2","pois":[
			{"id":"B1","name":"故宫博物院","address":"景山前街4号","location":"116.397029,39.917839","cityname":"北京市"},
			{"id":"B2","name":"午门","address":[],"location":"bad"}
		]}`))
	}))
	defer srv.Close()

	r, err := SearchPlaces(context.Background(), srv.Client(), srv.URL, "k1", "故宫", 5)
	require.NoError(t, err)
	require.Len(t, r.Pois, 2)

	lon, lat, ok := r.Pois[0].LonLat()
	require.True(t, ok)
	assert.InDelta(t, 116.397029, lon, 1e-9)
	assert.InDelta(t, 39.917839, lat, 1e-9)
	assert.Equal(t, "景山前街4号", r.Pois[0].AddressText())
	assert.Equal(t, "北京市", r.Pois[0].CityText())

	assert.Equal(t, "", r.Pois[1].AddressText())
	_, _, ok = r.Pois[1].LonLat()
	assert.False(t, ok)
}

func TestSearchPlacesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","info":"INVALID_USER_KEY","infocode":"10001"}`))
	}))
	defer srv.Close()

	r, err := SearchPlaces(context.Background(), srv.Client(), srv.URL, "bad", "x", 0)
	assert.ErrorIs(t, err, ErrStatus)
	require.NotNil(t, r)
	assert.Equal(t, "10001", r.Infocode)
}

func TestSearchPlacesMissingKey(t *testing.T) {
	_, err := SearchPlaces(context.Background(), nil, "", "", "x", 0)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestGCJ02ToWGS84(t *testing.T) {
	// 境外坐标不变
	lat, lon := GCJ02ToWGS84(51.5074, -0.1278)
	assert.Equal(t, 51.5074, lat)
	assert.Equal(t, -0.1278, lon)

	// 北京附近偏移量在数百米内
	lat, lon = GCJ02ToWGS84(39.917839, 116.397029)
	assert.InDelta(t, 39.9164, lat, 0.003)
	assert.InDelta(t, 116.3908, lon, 0.003)
	assert.NotEqual(t, 39.917839, lat)
}
