package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"domainscout/internal/availability/cache"
	"domainscout/internal/availability/metrics"
	"domainscout/internal/availability/oracle"
	"domainscout/internal/availability/resolver"
	"domainscout/internal/maintenance"
	"domainscout/internal/platform/config"
	"domainscout/internal/platform/httpserver"
	"domainscout/internal/platform/logger"
	platformmetrics "domainscout/internal/platform/metrics"
	"domainscout/internal/platform/postgres"
	"domainscout/internal/platform/redis"
	"domainscout/internal/pool"
	"domainscout/internal/pool/service"
	httptransport "domainscout/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	availMetrics := metrics.New()
	health := map[string]httptransport.HealthCheck{}

	// Stores degrade to in-memory twins when no backend is configured so a
	// dev box runs without infrastructure.
	var poolStore pool.Store = pool.NewMemoryStore()
	if cfg.Postgres.URL != "" {
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := pool.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("pool schema", "error", err)
			os.Exit(1)
		}
		poolStore = pg
		health["postgres"] = db.PingContext
	} else {
		log.Warn("no postgres configured, using in-memory pool")
	}

	var cacheStore cache.Store = cache.NewMemoryStore()
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient.Client, availMetrics)
		health["redis"] = redisClient.Health
	} else {
		log.Warn("no redis configured, using in-memory cache")
	}

	httpClient := oracle.NewHTTPClient()
	fallback := oracle.NewRDAP(httpClient)

	resolverOpts := []resolver.Option{
		resolver.WithLogger(log),
		resolver.WithMetrics(availMetrics),
	}
	if cfg.Oracles.PrimaryAPIKey != "" {
		primaryOpts := []oracle.PrimaryOption{}
		if cfg.Oracles.PrimaryBaseURL != "" {
			primaryOpts = append(primaryOpts, oracle.WithPrimaryBaseURL(cfg.Oracles.PrimaryBaseURL))
		}
		primary, err := oracle.NewPrimary(cfg.Oracles.PrimaryAPIKey, httpClient, primaryOpts...)
		if err != nil {
			log.Error("primary oracle", "error", err)
			os.Exit(1)
		}
		resolverOpts = append(resolverOpts, resolver.WithPrimary(primary))
	}
	if cfg.Oracles.BulkUser != "" && cfg.Oracles.BulkAPIKey != "" {
		bulkOpts := []oracle.BulkOption{}
		if cfg.Oracles.BulkBaseURL != "" {
			bulkOpts = append(bulkOpts, oracle.WithBulkBaseURL(cfg.Oracles.BulkBaseURL))
		}
		bulk, err := oracle.NewBulk(cfg.Oracles.BulkUser, cfg.Oracles.BulkAPIKey, httpClient, bulkOpts...)
		if err != nil {
			log.Error("bulk oracle", "error", err)
			os.Exit(1)
		}
		resolverOpts = append(resolverOpts, resolver.WithBulk(bulk))
	}

	res, err := resolver.New(cacheStore, fallback, resolverOpts...)
	if err != nil {
		log.Error("resolver", "error", err)
		os.Exit(1)
	}

	poolSvc, err := service.New(poolStore, res, service.WithLogger(log))
	if err != nil {
		log.Error("pool service", "error", err)
		os.Exit(1)
	}

	sweeper, err := maintenance.NewSweeper(poolStore, res, cfg.Enumerator.TLDs,
		maintenance.WithLogger(log), maintenance.WithSampleSize(cfg.Sweep.SampleSize))
	if err != nil {
		log.Error("sweeper", "error", err)
		os.Exit(1)
	}
	cronScheduler, err := sweeper.Start(cfg.Sweep.Schedule)
	if err != nil {
		log.Error("sweep schedule", "error", err)
		os.Exit(1)
	}

	// Pool size gauges refresh on a slow loop.
	gaugeCtx, stopGauges := context.WithCancel(ctx)
	go refreshPoolGauges(gaugeCtx, platformmetrics.NewPoolGauges(), poolStore, cfg.Enumerator.TLDs)

	handler := httptransport.NewHandler(res, poolSvc, log, health)
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting domainscout server", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopGauges()
	<-cronScheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	poolSvc.Wait()
}

func refreshPoolGauges(ctx context.Context, gauges *platformmetrics.PoolGauges, store pool.Store, tlds []string) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		for _, tld := range tlds {
			if n, err := store.Count(ctx, tld); err == nil {
				gauges.SetCandidates(tld, n)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
