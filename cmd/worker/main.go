package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/bus"
	"rollcall/internal/config"
	"rollcall/internal/metrics"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

// Worker consumes change notifications, re-runs the attendance aggregation,
// and exports the results as Prometheus gauges.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	mongo, err := store.NewMongo(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("mongo connect failed: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = mongo.Close(closeCtx)
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var changes bus.Bus
	if cfg.BusBackend == "memory" {
		changes = bus.NewInMemory()
	} else {
		changes = bus.NewRedisBus(redisClient.Client, cfg.BusChannel)
	}

	attRepo := attendance.NewRepository(mongo.Database)
	rosterRepo := roster.NewRepository(mongo.Database)

	registry := prometheus.NewRegistry()
	gauges := metrics.New(registry)

	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		log.Printf("metrics listening on :%s", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()

	recompute := func() {
		records, err := attRepo.List(ctx)
		if err != nil {
			log.Printf("list records failed: %v", err)
			return
		}
		students, err := rosterRepo.List(ctx)
		if err != nil {
			log.Printf("list students failed: %v", err)
			return
		}
		gauges.Update(attendance.Aggregate(records), len(students))
	}

	events, err := changes.Subscribe(ctx)
	if err != nil {
		log.Fatalf("bus subscribe failed: %v", err)
	}

	recompute()
	log.Println("worker started, waiting for change notifications...")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

loop:
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				break loop
			}
			log.Printf("collection %s changed, recomputing", evt.Collection)
			recompute()
		case <-ticker.C:
			recompute()
		case <-ctx.Done():
			break loop
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Println("worker stopped")
}
