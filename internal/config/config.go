// 包 config：从环境变量读取服务配置并填充默认值
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Config：服务运行参数
type Config struct {
	Addr    string
	APIBase string
	UIDir   string

	StoresPath   string
	FetchTimeout time.Duration

	MapsAPIKey     string
	PlacesAPIKey   string
	PlacesRegion   string
	AMapKey        string
	SearchCacheTTL time.Duration

	GeoIPPath     string
	DefaultCenter orb.Point
	DefaultZoom   int

	TLSEnable       bool
	TLSCertPath     string
	TLSKeyPath      string
	TLSRedirect     bool
	TLSRedirectAddr string
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getFloat(k string, def float64) float64 {
	if s := os.Getenv(k); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

// Load：读取环境变量
// 约束：数值解析失败时回退默认值；PLACES 密钥缺省时复用 GOOGLE_MAPS_API_KEY
func Load() Config {
	c := Config{
		Addr:            getenv("ADDR", ":8080"),
		APIBase:         strings.TrimRight(getenv("API_BASE", "/api"), "/"),
		UIDir:           getenv("UI_DIST", filepath.Join("ui", "dist")),
		StoresPath:      getenv("STORES_PATH", "stores.json"),
		FetchTimeout:    time.Duration(getInt("STORES_FETCH_TIMEOUT_S", 10)) * time.Second,
		MapsAPIKey:      getenv("GOOGLE_MAPS_API_KEY", ""),
		PlacesRegion:    getenv("GOOGLE_PLACES_REGION", "in"),
		AMapKey:         getenv("AMAP_SERVER_KEY", ""),
		SearchCacheTTL:  time.Duration(getInt("SEARCH_CACHE_TTL_S", 3600)) * time.Second,
		GeoIPPath:       getenv("GEOIP_DB_PATH", ""),
		DefaultCenter:   orb.Point{getFloat("MAP_CENTER_LON", 78.9629), getFloat("MAP_CENTER_LAT", 20.5937)},
		DefaultZoom:     getInt("MAP_ZOOM", 5),
		TLSEnable:       getenv("TLS_ENABLE", "false") == "true",
		TLSCertPath:     getenv("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:      getenv("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		TLSRedirect:     getenv("TLS_REDIRECT_ENABLE", "false") == "true",
		TLSRedirectAddr: getenv("TLS_REDIRECT_ADDR", ":80"),
	}
	c.PlacesAPIKey = getenv("GOOGLE_PLACES_API_KEY", c.MapsAPIKey)
	if c.APIBase == "" {
		c.APIBase = "/api"
	}
	return c
}
