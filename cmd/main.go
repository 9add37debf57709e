// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"store-map/internal/api"
	"store-map/internal/app"
	"store-map/internal/config"
	"store-map/internal/export"
	"store-map/internal/geoip"
	"store-map/internal/logger"
	"store-map/internal/mapview"
	"store-map/internal/metrics"
	"store-map/internal/middleware"
	"store-map/internal/places"
	"store-map/internal/stores"
	"store-map/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	l.Debug("config_loaded", "api_base", cfg.APIBase, "ui", cfg.UIDir, "stores", cfg.StoresPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 门店数据：加载失败不退出，页面显示告警，搜索与静态资源继续可用
	m := mapview.New(cfg.DefaultCenter, cfg.DefaultZoom)
	ctl := app.New(m, stores.NewLoader(cfg.StoresPath, cfg.FetchTimeout))
	go func() {
		err := ctl.Load(ctx)
		reportLoad(l, err, ctl.State().Status, cfg.StoresPath)
	}()

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	}

	// 文档注释：地点搜索提供方
	// 背景：Google Places 为主，高德为备；按注册顺序回退，后台心跳剔除不可用的提供方。
	pm := places.NewManager(places.NewCache(rc, cfg.SearchCacheTTL))
	client := &http.Client{Timeout: 4 * time.Second}
	if cfg.PlacesAPIKey != "" {
		pm.Register(places.NewGoogleProvider(cfg.PlacesAPIKey, cfg.PlacesRegion, client))
	}
	if cfg.AMapKey != "" {
		pm.Register(places.NewAMapProvider(cfg.AMapKey, client))
	}
	pm.Start(ctx)

	deps := api.Deps{
		App:           ctl,
		Map:           m,
		Search:        pm,
		MapsAPIKey:    cfg.MapsAPIKey,
		DefaultCenter: cfg.DefaultCenter,
		DefaultZoom:   cfg.DefaultZoom,
	}
	if cfg.GeoIPPath != "" {
		if loc, err := geoip.Open(cfg.GeoIPPath); err == nil {
			deps.Geo = loc
			defer loc.Close()
			l.Info("geoip_ready", "path", cfg.GeoIPPath)
		} else {
			l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, api.BuildRoutes(deps)))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))

	// NOTE: 向前端暴露 API 基础路径与地图密钥，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "';\n"))
		_, _ = w.Write([]byte(export.ConfigJS(cfg.MapsAPIKey)))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if cfg.TLSEnable {
		if e := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "store-map.local"); e != nil {
			l.Error("tls_cert_error", "err", e)
			os.Exit(1)
		}
		// 可选：启动 HTTP 重定向到 HTTPS（不改变 HTTPS 运行端口）
		if cfg.TLSRedirect {
			go serveRedirect(cfg.TLSRedirectAddr, cfg.Addr)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// reportLoad：空数据集是正常状态，仅记 info；其余失败记 warn
func reportLoad(l *slog.Logger, err error, status app.Status, source string) {
	switch {
	case err == nil:
	case errors.Is(err, stores.ErrEmptyDataset):
		l.Info("stores_empty", "source", source)
	default:
		l.Warn("stores_unavailable", "status", status, "source", source, "err", err)
	}
}

func serveRedirect(redirAddr, httpsAddr string) {
	l := logger.L()
	httpsPort := strings.TrimPrefix(httpsAddr, ":")
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		baseHost := r.Host
		if i := strings.LastIndex(baseHost, ":"); i != -1 {
			baseHost = baseHost[:i]
		}
		targetHost := baseHost
		if httpsPort != "" && httpsPort != "443" {
			targetHost = baseHost + ":" + httpsPort
		}
		target := "https://" + targetHost + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+httpsAddr)
	if err := http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(h)); err != nil {
		l.Error("http_redirect_error", "err", err)
	}
}
