package places

import (
	"context"
	"net/http"
	"time"

	"github.com/paulmach/orb"

	"store-map/internal/amap"
)

// 文档注释：高德关键字搜索
// 约束：高德返回 GCJ-02 坐标，转换为 WGS84 后输出；结果只有点位，无 viewport；关键字接口不支持视窗偏置，Bias 被忽略
type AMapProvider struct {
	key     string
	client  *http.Client
	baseURL string
	limit   int
}

func NewAMapProvider(key string, client *http.Client) *AMapProvider {
	if client == nil {
		client = &http.Client{Timeout: 4 * time.Second}
	}
	return &AMapProvider{key: key, client: client, baseURL: amap.DefaultBaseURL, limit: 10}
}

func (p *AMapProvider) Name() string { return "amap" }

func (p *AMapProvider) Heartbeat(ctx context.Context) error {
	if p.key == "" {
		return amap.ErrMissingKey
	}
	return nil
}

func (p *AMapProvider) Search(ctx context.Context, q Query) ([]Place, error) {
	r, err := amap.SearchPlaces(ctx, p.client, p.baseURL, p.key, q.Text, p.limit)
	if err != nil {
		return nil, err
	}
	out := make([]Place, 0, len(r.Pois))
	for _, poi := range r.Pois {
		pl := Place{Name: poi.Name, Address: poi.AddressText(), Provider: "amap"}
		if lon, lat, ok := poi.LonLat(); ok {
			wlat, wlon := amap.GCJ02ToWGS84(lat, lon)
			pl.Location = orb.Point{wlon, wlat}
			pl.HasLocation = true
		}
		out = append(out, pl)
	}
	return out, nil
}
