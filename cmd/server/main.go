package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"

	"naturatlas/internal/aggregator"
	"naturatlas/internal/cache/cellindex"
	"naturatlas/internal/cache/memcache"
	"naturatlas/internal/cache/rediscache"
	"naturatlas/internal/config"
	"naturatlas/internal/health"
	"naturatlas/internal/httpclient"
	"naturatlas/internal/invalidation/kafkaconsumer"
	"naturatlas/internal/logger"
	"naturatlas/internal/mapper/cellcover"
	"naturatlas/internal/observability"
	"naturatlas/internal/router"
	"naturatlas/internal/server"
	"naturatlas/internal/sources"
	_ "naturatlas/internal/sources/natura"
	_ "naturatlas/internal/sources/nvr"
	_ "naturatlas/internal/sources/ramsar"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting", "addr", cfg.Addr, "version", Version, "cache", cfg.CacheEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hc := httpclient.NewOutbound()
	srcs, err := sources.All(cfg, appLog, hc)
	if err != nil {
		appLog.Error("source setup failed", "err", err)
		return 1
	}
	agg := aggregator.New(srcs, appLog)

	detail, err := memcache.New(cfg.DetailLRUSize)
	if err != nil {
		appLog.Error("detail cache setup failed", "err", err)
		return 1
	}

	var ready atomic.Bool
	ready.Store(true)

	var cs *router.CacheSet
	if cfg.CacheEnabled {
		cli, err := rediscache.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis setup failed", "err", err)
			return 1
		}
		defer func() { _ = cli.Close() }()

		mapper, err := cellcover.New(cfg.CellRes)
		if err != nil {
			appLog.Error("cell mapper setup failed", "err", err)
			return 1
		}
		index := cellindex.New(cli)
		cs = &router.CacheSet{
			Store:     cli,
			Index:     index,
			Mapper:    mapper,
			TTL:       cfg.CacheTTL,
			OpTimeout: cfg.CacheOpTimeout,
		}

		if cfg.Invalidation.Enabled {
			cons := kafkaconsumer.New(
				kafkaconsumer.FromConfig(cfg.Invalidation),
				appLog, cli, index, mapper, detail,
			)
			go func() {
				if err := cons.Start(ctx); err != nil {
					appLog.Error("invalidation consumer failed", "err", err)
					ready.Store(false)
				}
			}()
		}
	} else if cfg.Invalidation.Enabled {
		appLog.Warn("invalidation enabled without cache; consumer not started")
	}

	h := router.NewHandlers(appLog, agg, srcs, cs, detail)

	if err := server.Run(ctx, cfg, appLog, h, health.ReadyFunc(ready.Load)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
