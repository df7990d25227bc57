// Server entry: reads configuration, loads the dataset, wires optional backends and serves the
// API and the static dashboard.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"market-map/internal/api"
	"market-map/internal/config"
	"market-map/internal/dataset"
	"market-map/internal/geoip"
	"market-map/internal/ingest"
	"market-map/internal/logger"
	"market-map/internal/metrics"
	"market-map/internal/middleware"
	"market-map/internal/migrate"
	"market-map/internal/store"
	"market-map/internal/trend"
	"market-map/internal/utils"
	"market-map/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	l := logger.SetupWith(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_ui_dir", "dir", cfg.UIDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srcs := dataset.FromConfig(cfg.Sources)
	holder := dataset.NewHolder(nil)
	if _, err := holder.Reload(ctx, srcs); err != nil {
		// API answers 503 until an admin reload succeeds
		l.Error("dataset_load_error", "err", err)
	}

	deps := api.Deps{
		Holder:         holder,
		Sources:        srcs,
		AdminToken:     cfg.AdminToken,
		LocateRadiusKm: cfg.LocateRadiusKm,
	}

	var svc *trend.Service
	if cfg.Postgres.Enabled {
		st, err := store.Open(cfg.Postgres)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer st.Close()
		l.Info("db_open_ok")
		if err := st.Ping(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
			if err := migrate.EnsureSchema(ctx, st.DB()); err != nil {
				l.Error("schema_error", "err", err)
				os.Exit(1)
			}
		}

		rc := utils.OpenRedis(cfg.Redis)
		if rc == nil {
			l.Info("redis_disabled")
		} else {
			defer rc.Close()
			if err := rc.Ping(ctx).Err(); err != nil {
				l.Error("redis_ping_error", "err", err)
			} else {
				l.Info("redis_ping_ok")
			}
		}
		svc = trend.NewService(st, rc, cfg.Trend.LRUSize, cfg.Trend.CacheTTL)
		deps.Trend = svc

		if src := cfg.Trend.IngestSource; src != "" {
			loc, err := time.LoadLocation(cfg.Trend.IngestTZ)
			if err != nil {
				l.Error("ingest_tz_error", "tz", cfg.Trend.IngestTZ, "err", err)
				loc = time.Local
			}
			ingest.StartWeekly(ctx, loc, time.Monday, cfg.Trend.IngestHour, func(ctx context.Context) error {
				if _, err := ingest.ImportTrendSource(ctx, st.DB(), src, "utf-8", ingest.DefaultBatch); err != nil {
					return err
				}
				keys := []string{}
				if cov, err := st.TrendCoverage(ctx); err == nil {
					for _, c := range cov {
						keys = append(keys, c.Region)
					}
				}
				svc.Invalidate(ctx, keys...)
				return nil
			})
		}
	} else {
		l.Info("trend_store_disabled")
	}

	if cfg.GeoIPPath != "" {
		if loc, err := geoip.Open(cfg.GeoIPPath); err != nil {
			l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
		} else {
			defer loc.Close()
			deps.Locator = loc
			l.Info("geoip_ready", "path", cfg.GeoIPPath)
		}
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(deps)
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'\n"))
	})

	var handler http.Handler = mux
	if cfg.RateLimitEnabled {
		handler = middleware.RateLimit(cfg.RateLimitQPS)(handler)
		l.Info("rate_limit_enabled", "qps", cfg.RateLimitQPS)
	}
	handler = logger.AccessMiddleware(l, metrics.ObserveHTTP)(handler)

	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if cfg.TLS.Enable {
		host := strings.Split(cfg.Addr, ":")[0]
		if host == "" {
			host = "localhost"
		}
		if err := utils.EnsureSelfSignedCert(cfg.TLS.CertPath, cfg.TLS.KeyPath, host); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLS.CertPath)
		if err := s.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath); err != nil && err != http.ErrServerClosed {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		l.Error("server_error", "err", err)
	}
}
