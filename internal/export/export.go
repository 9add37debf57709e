// 包 export：从 Postgres 门店映射表导出页面使用的 stores.json 与 config.js
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"store-map/internal/logger"
	"store-map/internal/metrics"
	"store-map/internal/stores"
)

const (
	DefaultTable  = "entity.pincode_store_mapping"
	UnknownName   = "Unknown"
	UnknownColor  = "#888888"
	latColumn     = "latitude"
	lonColumn     = "longitude"
	channelColumn = "channel_id"
	storeIDColumn = "store_id"
)

var ErrBadChannel = errors.New("export: bad channel entry")

// Channel：渠道 id → 来源名称与显示颜色
type Channel struct {
	ID    int64
	Name  string
	Color string
}

func DefaultChannels() []Channel {
	return []Channel{
		{ID: 27, Name: "Blinkit", Color: "#D8C414"},
		{ID: 65, Name: "Swiggy", Color: "#EC822A"},
		{ID: 109, Name: "Zepto", Color: "#A10DA1"},
	}
}

// ParseChannels：解析 "27:Blinkit:#D8C414,65:Swiggy:#EC822A"；空串返回默认渠道
// 约束：id 重复时报错；颜色缺省为 UnknownColor
func ParseChannels(s string) ([]Channel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultChannels(), nil
	}
	seen := map[int64]bool{}
	var out []Channel
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fs := strings.SplitN(part, ":", 3)
		if len(fs) < 2 {
			return nil, fmt.Errorf("%w: %q", ErrBadChannel, part)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fs[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadChannel, part)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrBadChannel, id)
		}
		seen[id] = true
		c := Channel{ID: id, Name: strings.TrimSpace(fs[1]), Color: UnknownColor}
		if c.Name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadChannel, part)
		}
		if len(fs) == 3 && strings.TrimSpace(fs[2]) != "" {
			c.Color = strings.TrimSpace(fs[2])
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrBadChannel)
	}
	return out, nil
}

// Row：映射表的一行；经纬度可能为空
type Row struct {
	Lat       sql.NullFloat64
	Lon       sql.NullFloat64
	ChannelID int64
	StoreID   sql.NullString
}

// QuoteTable：对 "schema.table" 逐段加引号
func QuoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// FetchRows：按渠道 id 查询门店映射
func FetchRows(ctx context.Context, db *sql.DB, table string, chans []Channel) ([]Row, error) {
	ids := make([]int64, 0, len(chans))
	for _, c := range chans {
		ids = append(ids, c.ID)
	}
	q := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s WHERE %s = ANY($1)",
		pq.QuoteIdentifier(latColumn), pq.QuoteIdentifier(lonColumn),
		pq.QuoteIdentifier(channelColumn), pq.QuoteIdentifier(storeIDColumn),
		QuoteTable(table), pq.QuoteIdentifier(channelColumn))
	rows, err := db.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Lat, &r.Lon, &r.ChannelID, &r.StoreID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Info("export_fetch_ok", "rows", len(out))
	return out, nil
}

// Sanitize：跳过空或 NaN 坐标，映射渠道名称与颜色；未知渠道为 Unknown/#888888
func Sanitize(rows []Row, chans []Channel) []stores.Record {
	byID := make(map[int64]Channel, len(chans))
	for _, c := range chans {
		byID[c.ID] = c
	}
	out := make([]stores.Record, 0, len(rows))
	for _, r := range rows {
		if !r.Lat.Valid || !r.Lon.Valid || math.IsNaN(r.Lat.Float64) || math.IsNaN(r.Lon.Float64) {
			metrics.ExportRowsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		c, ok := byID[r.ChannelID]
		if !ok {
			c = Channel{ID: r.ChannelID, Name: UnknownName, Color: UnknownColor}
		}
		out = append(out, stores.Record{
			ID:         r.StoreID.String,
			Lat:        r.Lat.Float64,
			Lon:        r.Lon.Float64,
			SourceName: c.Name,
			Color:      c.Color,
		})
		metrics.ExportRowsTotal.WithLabelValues("written").Inc()
	}
	return out
}

func writeFile(path string, b []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

// WriteStores：写出缩进 2 空格的 JSON 数组；无记录时写 []
func WriteStores(path string, recs []stores.Record) error {
	if recs == nil {
		recs = []stores.Record{}
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(b, '\n'))
}

// WriteConfigJS：写出页面使用的地图密钥脚本
func WriteConfigJS(path, key string) error {
	return writeFile(path, []byte(ConfigJS(key)))
}

// ConfigJS：单引号字符串，密钥中的反斜杠与单引号被转义
func ConfigJS(key string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", "", "\r", "")
	return "const GOOGLE_MAPS_API_KEY = '" + r.Replace(key) + "';\n"
}

// Summary：按来源统计导出条数，名称排序
func Summary(recs []stores.Record) []string {
	counts := map[string]int{}
	for _, r := range recs {
		counts[r.SourceName]++
	}
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, k := range names {
		out = append(out, k+"="+strconv.Itoa(counts[k]))
	}
	return out
}
