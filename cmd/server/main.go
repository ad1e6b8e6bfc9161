package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-marketplace/internal/config"
	"github.com/iliyamo/ticket-marketplace/internal/database"
	"github.com/iliyamo/ticket-marketplace/internal/handler"
	"github.com/iliyamo/ticket-marketplace/internal/middleware"
	"github.com/iliyamo/ticket-marketplace/internal/queue"
	"github.com/iliyamo/ticket-marketplace/internal/repository"
	"github.com/iliyamo/ticket-marketplace/internal/router"
	"github.com/iliyamo/ticket-marketplace/internal/simulation"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	qcfg := config.LoadQueueConfig()
	scfg := config.LoadSimulationConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("database: ensure schema: %v", err)
	}

	// Redis is optional: without it the cache and limiter pass through.
	var rdb *redis.Client
	if c, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		log.Printf("redis: unavailable, cache and rate limit disabled: %v", err)
	} else {
		rdb = c
		defer rdb.Close()
	}

	events := repository.NewEventRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	regOpts := []simulation.RegistryOption{}
	if scfg.MirrorLogs {
		regOpts = append(regOpts, simulation.WithMirrorLogger(log.Default()))
	}
	sims := simulation.NewRegistry(events, simulation.Options{
		MaxBatch:    scfg.MaxBatch,
		VendorCount: scfg.VendorCount,
		MinInterval: scfg.MinInterval,
	}, regOpts...)

	publisher := queue.NewPublisher(qcfg)
	consumer := queue.NewConsumer(qcfg, queue.NewProcessor(events, 5*time.Second))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("retrieval-consumer: stopped: %v", err)
		}
	}()

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	e := router.New(router.Deps{
		JWTSecret:   cfg.JWTSecret,
		Health:      &handler.HealthHandler{DB: db, Sims: sims},
		Auth:        handler.NewAuthHandler(cfg, users, tokens),
		Events:      &handler.EventHandler{Events: events, Cache: cache},
		Simulations: &handler.SimulationHandler{Sims: sims},
		Retrieval:   &handler.RetrievalHandler{Queue: publisher},
		Cache:       cache.Middleware(),
		Limiter:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	<-consumerDone
	sims.Shutdown()
	if err := publisher.Close(); err != nil {
		log.Printf("retrieval-publisher: close: %v", err)
	}
}
