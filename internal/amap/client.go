package amap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"store-map/internal/logger"
)

// DefaultBaseURL：高德 Web 服务地址
const DefaultBaseURL = "https://restapi.amap.com"

var (
	ErrMissingKey = errors.New("amap: missing key")
	ErrStatus     = errors.New("amap: error status")
)

// 文档注释：高德关键字搜索响应结构
// 约束：仅解析名称、地址与坐标；status/infocode 用于错误判定
type PlaceTextResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Infocode string `json:"infocode"`
	Count    string `json:"count"`
	Pois     []POI  `json:"pois"`
}

// POI：单个兴趣点；Location 为 "经度,纬度"（GCJ-02）
type POI struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Address  json.RawMessage `json:"address"`
	Location string          `json:"location"`
	PName    json.RawMessage `json:"pname"`
	CityName json.RawMessage `json:"cityname"`
}

// AddressText：address 字段为空时高德返回 []，此处统一为字符串
func (p POI) AddressText() string { return rawText(p.Address) }

func (p POI) CityText() string { return rawText(p.CityName) }

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// LonLat：解析 "lng,lat"；格式不合法时 ok=false
func (p POI) LonLat() (lon, lat float64, ok bool) {
	parts := strings.Split(p.Location, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lon, lat, true
}

// 文档注释：关键字搜索 POI（REST v3/place/text）
// 参数：
// - client：为空时使用 5s 超时的默认客户端；
// - baseURL：为空时使用 DefaultBaseURL，测试可替换；
// - key：Web 服务密钥，必填；
// - keywords：搜索关键字；limit 为单页条数（1..25）。
// 返回：status!="1" 时返回 ErrStatus 并附带响应内容。
func SearchPlaces(ctx context.Context, client *http.Client, baseURL, key, keywords string, limit int) (*PlaceTextResponse, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	q := url.Values{}
	q.Set("key", key)
	q.Set("keywords", keywords)
	q.Set("offset", strconv.Itoa(limit))
	q.Set("page", "1")
	q.Set("extensions", "base")
	u := strings.TrimRight(baseURL, "/") + "/v3/place/text?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	t0 := time.Now()
	logger.L().Debug("amap_req", "keywords", keywords)
	resp, err := client.Do(req)
	if err != nil {
		logger.L().Error("amap_http_error", "err", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amap: http status %d", resp.StatusCode)
	}
	var r PlaceTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("amap_decode_error", "err", err)
		return nil, err
	}
	logger.L().Debug("amap_resp", "keywords", keywords, "status", r.Status, "infocode", r.Infocode, "pois", len(r.Pois), "duration_ms", time.Since(t0).Milliseconds())
	if r.Status != "1" {
		return &r, fmt.Errorf("%w: %s (%s)", ErrStatus, r.Info, r.Infocode)
	}
	return &r, nil
}
