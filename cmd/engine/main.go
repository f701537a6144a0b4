package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/oddsradar/oddsradar/internal/engine"
	"github.com/oddsradar/oddsradar/internal/pkg/config"
	"github.com/oddsradar/oddsradar/internal/pkg/health"
	"github.com/oddsradar/oddsradar/internal/pkg/health/handlers"
	"github.com/oddsradar/oddsradar/internal/pkg/logging"
	"github.com/oddsradar/oddsradar/internal/pkg/models"
	"github.com/oddsradar/oddsradar/internal/pkg/sources"
	"github.com/oddsradar/oddsradar/internal/pkg/storage"
)

func main() {
	var configPath string
	var once bool
	flag.StringVar(&configPath, "config", "configs/local.yaml", "Path to config file")
	flag.BoolVar(&once, "once", false, "Run a single reconciliation cycle and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.SetupLogger(&cfg.Logging, "reconciliation-engine")

	store, err := storage.NewPostgresFixtureStorage(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer store.Close()

	var cache storage.ListingCache
	if cfg.Redis.Addr != "" {
		redisCache, err := storage.NewRedisListingCache(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		slog.Warn("Redis not configured, listing snapshots disabled")
	}

	var srcs []sources.Source
	codes := make([]string, 0, len(cfg.Sources.Endpoints))
	for code, baseURL := range cfg.Sources.Endpoints {
		src := sources.NewHTTPSource(code, baseURL, cfg.Sources.Timeout)
		if src == nil {
			slog.Warn("Skipping source with empty endpoint", "source", code)
			continue
		}
		srcs = append(srcs, src)
		codes = append(codes, code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.SyncSources(ctx, codes); err != nil {
		log.Fatalf("Failed to sync sources: %v", err)
	}

	notifier := engine.NewNotifier(&cfg.Telegram)
	eng := engine.New(&cfg.Engine, store, cache, srcs, cfg.Sources.Timeout, notifier)
	eng.OnCycle(func(stats *engine.CycleStats) {
		health.RecordCycle(stats)
	})

	if once {
		if _, err := eng.RunCycle(ctx); err != nil {
			log.Fatalf("Reconciliation cycle failed: %v", err)
		}
		return
	}

	// Wire diagnostics endpoints
	handlers.SetGetStatsFunc(health.LastCycle)
	handlers.SetTriggerCycleFunc(eng.TriggerCycle)
	handlers.SetListFixturesFunc(func(r *http.Request) ([]models.AggregatedFixture, error) {
		return store.ListFixtures(r.Context())
	})
	if cfg.Health.Addr != "" {
		go health.Run(ctx, cfg.Health.Addr, cfg.Health.ReadHeaderTimeout)
	}

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping engine")
		cancel()
	}()

	if err := eng.Run(ctx); err != nil {
		log.Fatalf("Engine failed: %v", err)
	}
	slog.Info("Engine stopped")
}
