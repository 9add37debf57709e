// 包 geoip：按访问者 IP 估算地图初始中心（GeoLite2-City / GeoIP2-City 数据库）
package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/paulmach/orb"

	"store-map/internal/logger"
)

// Locator：数据库只读句柄；nil Locator 合法，所有查询均未命中
type Locator struct {
	db *geoip2.Reader
}

func Open(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Locator{db: db}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Center：返回 IP 对应的（经度, 纬度）
// 约束：私网/回环地址、解析失败或库中无坐标时 ok=false
func (l *Locator) Center(ip string) (orb.Point, bool) {
	if l == nil || l.db == nil {
		return orb.Point{}, false
	}
	addr := net.ParseIP(ip)
	if addr == nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
		return orb.Point{}, false
	}
	rec, err := l.db.City(addr)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "ip", ip, "err", err)
		return orb.Point{}, false
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return orb.Point{}, false
	}
	return orb.Point{rec.Location.Longitude, rec.Location.Latitude}, true
}
