// 包 stores：门店点位数据模型与数据集加载（本地文件或 HTTP 地址）
package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"store-map/internal/logger"
	"store-map/internal/metrics"
)

var (
	// ErrDataLoad：数据集无法获取或无法解析
	ErrDataLoad = errors.New("stores: data load failed")
	// ErrEmptyDataset：获取成功但没有可用记录，与加载失败区分处理
	ErrEmptyDataset = errors.New("stores: empty dataset")
)

// Record：单个门店点位，加载后只读
type Record struct {
	ID         string  `json:"store_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	SourceName string  `json:"source_name"`
	Color      string  `json:"color"`
}

// rawRecord：解码中间结构，指针字段用于区分缺失与零值
type rawRecord struct {
	Lat        *float64        `json:"lat"`
	Lon        *float64        `json:"lon"`
	SourceName string          `json:"source_name"`
	StoreID    json.RawMessage `json:"store_id"`
	Color      string          `json:"color"`
}

// parseStoreID：store_id 兼容字符串与数字
func parseStoreID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	}
	return string(raw)
}

func validCoord(v *float64, limit float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && math.Abs(*v) <= limit
}

// Decode：解析门店 JSON 数组
// 约束：字段类型不符、缺少经纬度、经纬度越界或 source_name 为空的记录跳过并计数，不中断整体加载；
// 其余字段不做校验。返回值 skipped 为被跳过的条数。
func Decode(r io.Reader) (records []Record, skipped int, err error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, 0, fmt.Errorf("%w: decode: %w", ErrDataLoad, err)
	}
	records = make([]Record, 0, len(elems))
	for i, el := range elems {
		var rr rawRecord
		if err := json.Unmarshal(el, &rr); err != nil {
			skipped++
			logger.L().Warn("stores_record_skipped", "index", i, "err", err)
			continue
		}
		if !validCoord(rr.Lat, 90) || !validCoord(rr.Lon, 180) || strings.TrimSpace(rr.SourceName) == "" {
			skipped++
			logger.L().Warn("stores_record_skipped", "index", i, "store_id", parseStoreID(rr.StoreID), "source", rr.SourceName)
			continue
		}
		records = append(records, Record{
			ID:         parseStoreID(rr.StoreID),
			Lat:        *rr.Lat,
			Lon:        *rr.Lon,
			SourceName: rr.SourceName,
			Color:      rr.Color,
		})
	}
	return records, skipped, nil
}

// Loader：按 Source 获取数据集；Source 以 http:// 或 https:// 开头时走 GET 请求，否则视为本地路径
type Loader struct {
	Source string
	Client *http.Client
}

func NewLoader(source string, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{Source: source, Client: &http.Client{Timeout: timeout}}
}

func isRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (l *Loader) open(ctx context.Context) (io.ReadCloser, error) {
	if !isRemote(l.Source) {
		f, err := os.Open(l.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	req.Header.Set("Accept", "application/json")
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrDataLoad, resp.StatusCode)
	}
	return resp.Body, nil
}

// Load：获取并解析数据集
// 返回：成功时为输入顺序的记录；无可用记录时返回 ErrEmptyDataset；获取/解析失败时返回包装 ErrDataLoad 的错误。
func (l *Loader) Load(ctx context.Context) ([]Record, error) {
	t0 := time.Now()
	defer func() {
		metrics.StoresLoadDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	}()
	logger.L().Debug("stores_load_begin", "source", l.Source)
	rc, err := l.open(ctx)
	if err != nil {
		metrics.StoresLoadTotal.WithLabelValues("fail").Inc()
		logger.L().Error("stores_load_error", "source", l.Source, "err", err)
		return nil, err
	}
	defer rc.Close()
	records, skipped, err := Decode(rc)
	if err != nil {
		metrics.StoresLoadTotal.WithLabelValues("fail").Inc()
		logger.L().Error("stores_decode_error", "source", l.Source, "err", err)
		return nil, err
	}
	if skipped > 0 {
		metrics.StoreRecordsSkippedTotal.Add(float64(skipped))
	}
	if len(records) == 0 {
		metrics.StoresLoadTotal.WithLabelValues("empty").Inc()
		logger.L().Info("stores_load_empty", "source", l.Source, "skipped", skipped)
		return nil, ErrEmptyDataset
	}
	metrics.StoresLoadTotal.WithLabelValues("ok").Inc()
	logger.L().Info("stores_load_ok", "source", l.Source, "records", len(records), "skipped", skipped)
	return records, nil
}
