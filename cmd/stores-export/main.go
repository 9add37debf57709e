// 导出工具：从 Postgres 门店映射表生成 stores.json 与 config.js
// 约束：数据库不可达或查询失败时仍写出空数组，页面据此显示无数据提示
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"store-map/internal/export"
	"store-map/internal/logger"
	"store-map/internal/stores"
	"store-map/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()

	out := flag.String("out", envOr("STORES_PATH", "stores.json"), "stores.json output path")
	cfgOut := flag.String("config-js", envOr("CONFIG_JS_PATH", "config.js"), "config.js output path")
	table := flag.String("table", envOr("STORES_TABLE", export.DefaultTable), "schema-qualified source table")
	timeout := flag.Duration("timeout", 60*time.Second, "database fetch timeout")
	flag.Parse()

	chans, err := export.ParseChannels(os.Getenv("CHANNELS"))
	if err != nil {
		l.Error("export_channels_error", "err", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	recs := fetch(ctx, *table, chans)

	if err := export.WriteStores(*out, recs); err != nil {
		l.Error("export_write_error", "path", *out, "err", err)
		os.Exit(1)
	}
	l.Info("export_write_ok", "path", *out, "records", len(recs), "sources", export.Summary(recs))

	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		if err := export.WriteConfigJS(*cfgOut, key); err != nil {
			l.Error("export_config_js_error", "path", *cfgOut, "err", err)
			os.Exit(1)
		}
		l.Info("export_config_js_ok", "path", *cfgOut)
	} else {
		l.Warn("export_config_js_skipped", "reason", "GOOGLE_MAPS_API_KEY not set")
	}
}

// fetch：连接或查询失败只记录日志并返回空结果
func fetch(ctx context.Context, table string, chans []export.Channel) []stores.Record {
	l := logger.L()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		return nil
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		l.Warn("db_ping_error", "err", err, "action", "skip_fetch")
		return nil
	}
	l.Info("db_ping_ok")
	rows, err := export.FetchRows(ctx, db, table, chans)
	if err != nil {
		l.Error("export_fetch_error", "err", err)
		return nil
	}
	return export.Sanitize(rows, chans)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
