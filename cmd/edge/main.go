package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/animuslabs/fiddl-ui-sub000/internal/cache"
	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/httpx"
	"github.com/animuslabs/fiddl-ui-sub000/internal/media"
	"github.com/animuslabs/fiddl-ui-sub000/internal/metrics"
	"github.com/animuslabs/fiddl-ui-sub000/internal/origin"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/routes"
	"github.com/animuslabs/fiddl-ui-sub000/internal/telemetry"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/config"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/logger"
)

func main() {
	config.LoadDotenv()
	cfg := config.LoadEdgeConfig()
	log := logger.New("edge", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.Init("fiddl-edge")
		if err != nil {
			log.Warn("tracing unavailable", "error", err)
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					log.Warn("tracer shutdown failed", "error", err)
				}
			}()
		}
	}

	var store cache.Store
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		redisStore, err := cache.NewRedisStore(addr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTimeout, log)
		if err != nil {
			log.Warn("redis page cache unavailable, using in-memory store", "error", err)
		} else {
			store = redisStore
		}
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	originClient, err := origin.New(cfg.OriginURL, cfg.OriginTimeout, log)
	if err != nil {
		log.Error("invalid origin configuration", "error", err)
		os.Exit(1)
	}
	apiClient, err := fiddlapi.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		log.Error("invalid api configuration", "error", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		API:    apiClient,
		Media:  media.NewResolver(cfg.CDNBaseURL),
		Shell:  originClient,
		Cfg:    cfg,
		Logger: log,
	}
	defaults := page.Defaults{
		SiteName:    cfg.SiteName,
		Description: cfg.DefaultDescription,
		OGImageURL:  ogImageURL(deps, cfg),
		SiteOrigin:  cfg.SiteOrigin,
	}
	assembler := page.NewAssembler(originClient, store, defaults, log, metrics.New())

	var cacheHealth func(context.Context) error
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		cacheHealth = pinger.Ping
	}

	router := httpx.NewRouter(log, deps, assembler, store, originClient, cacheHealth)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("edge renderer starting", "addr", cfg.Addr, "origin", cfg.OriginURL)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("edge renderer stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func ogImageURL(deps routes.Deps, cfg config.EdgeConfig) string {
	if cfg.DefaultOGImageID == "" {
		return strings.TrimRight(cfg.SiteOrigin, "/") + "/og-image.png"
	}
	return deps.Media.OGImage(cfg.DefaultOGImageID)
}
