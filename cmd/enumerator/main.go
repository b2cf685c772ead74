package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"domainscout/internal/availability/oracle"
	"domainscout/internal/enumerate"
	"domainscout/internal/platform/config"
	"domainscout/internal/platform/logger"
	"domainscout/internal/platform/postgres"
	"domainscout/internal/pool"
)

// main runs one enumeration worker per configured TLD against the shared
// pattern space, sharing the polite RDAP rate limit budget across workers.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var poolStore pool.Store = pool.NewMemoryStore()
	var checkpoints enumerate.CheckpointStore = enumerate.NewMemoryCheckpointStore()
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

		cpStore, err := enumerate.NewPostgresCheckpointStore(db)
		if err != nil {
			log.Error("checkpoint store", "error", err)
			os.Exit(1)
		}
		if err := cpStore.EnsureSchema(ctx); err != nil {
			log.Error("checkpoint schema", "error", err)
			os.Exit(1)
		}
		checkpoints = cpStore
	} else {
		log.Warn("no postgres configured, progress will not survive restarts")
	}

	space := enumerate.NewSpace()
	log.Info("pattern space materialized", "words", space.Len())

	rdap := oracle.NewRDAP(oracle.NewHTTPClient())

	g, runCtx := errgroup.WithContext(ctx)
	for _, tld := range cfg.Enumerator.TLDs {
		worker, err := enumerate.NewWorker(space, tld, rdap, poolStore, checkpoints,
			enumerate.WithLogger(log),
			enumerate.WithInterval(cfg.Enumerator.CheckInterval()),
			enumerate.WithFlushEvery(cfg.Enumerator.FlushEvery),
			enumerate.WithRecheckInterval(cfg.Enumerator.RecheckInterval()))
		if err != nil {
			log.Error("worker init", "tld", tld, "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return worker.Run(runCtx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("enumeration stopped", "error", err)
		os.Exit(1)
	}
	log.Info("enumeration shut down")
}
