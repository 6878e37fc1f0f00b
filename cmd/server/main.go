package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sdagate/internal/catalog"
	catalogcache "sdagate/internal/catalog/cache"
	cataloghandler "sdagate/internal/catalog/handler"
	"sdagate/internal/evaluation"
	evaluationhandler "sdagate/internal/evaluation/handler"
	"sdagate/internal/export"
	"sdagate/internal/platform/config"
	"sdagate/internal/platform/httpserver"
	"sdagate/internal/platform/logger"
	"sdagate/internal/platform/metrics"
	transporthttp "sdagate/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		catalogStore    catalog.Store
		evaluationStore evaluation.Store
		db              *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("connect database", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		db = pool

		catalogStore, err = catalog.NewPostgresStore(ctx, pool)
		if err != nil {
			log.Error("init catalog store", "error", err.Error())
			os.Exit(1)
		}
		evaluationStore, err = evaluation.NewPostgresStore(ctx, pool)
		if err != nil {
			log.Error("init evaluation store", "error", err.Error())
			os.Exit(1)
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		catalogStore = catalog.NewInMemoryStore()
		evaluationStore = evaluation.NewInMemoryStore()
	}

	if err := catalog.Seed(ctx, catalogStore); err != nil {
		log.Error("seed catalog", "error", err.Error())
		os.Exit(1)
	}

	catalogReads := catalogStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		catalogReads = catalogcache.New(catalogStore, client, config.ServiceCacheTTL, m)
		log.Info("service cache enabled", "addr", cfg.RedisAddr)
	}

	evalService := evaluation.NewService(catalogReads, evaluationStore, log, m)
	exporter := export.NewService(evalService, catalogReads)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Logger:     log,
		Metrics:    m,
		Catalog:    cataloghandler.New(catalogReads, evalService, log),
		Evaluation: evaluationhandler.New(evalService, exporter, log),
		Database:   pingerOrNil(db),
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err.Error())
	}
}

// pingerOrNil keeps the health check nil-safe: a typed nil *pgxpool.Pool in a
// non-nil interface would panic on Ping.
func pingerOrNil(db *pgxpool.Pool) transporthttp.Pinger {
	if db == nil {
		return nil
	}
	return db
}
