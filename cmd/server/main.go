package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"warehousesim/internal/adapter/handler"
	"warehousesim/internal/adapter/queue"
	"warehousesim/internal/config"
	"warehousesim/internal/core/domain"
	"warehousesim/internal/core/service"
	"warehousesim/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect redis",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	mq := queue.NewRedisQueue(rdb, cfg.Queue.Group)
	for _, name := range []string{cfg.Queue.OrderQueue, cfg.Queue.TransportQueue} {
		if err := mq.Declare(ctx, name); err != nil {
			log.Fatal("failed to declare queue",
				zap.String("queue", name), zap.Error(err))
		}
	}

	// Initialize services
	ledger := service.NewInventoryLedger(domain.DefaultItems(), mq,
		cfg.Queue.TransportQueue, cfg.Queue.UpdateBuffer, log)
	allocator := service.NewRackAllocator(domain.DefaultRacks(), log)
	pool := service.NewDispatchPool(service.DispatchConfig{
		UnitNames:      cfg.Dispatch.UnitNames,
		OrderQueue:     cfg.Queue.OrderQueue,
		TransportQueue: cfg.Queue.TransportQueue,
		MinDelay:       cfg.Dispatch.MinDelay,
		MaxDelay:       cfg.Dispatch.MaxDelay,
	}, mq, log)
	reporter := service.NewReporter(ledger, allocator, cfg.Report.Interval, log)

	// Start consumer loops
	var consumers sync.WaitGroup
	consumers.Add(2)
	go func() {
		defer consumers.Done()
		pool.Run(ctx)
	}()
	go func() {
		defer consumers.Done()
		ledger.Run(ctx)
	}()

	var storage sync.WaitGroup
	storage.Add(1)
	go func() {
		defer storage.Done()
		allocator.Consume(ledger.Updates())
	}()

	go reporter.Run(ctx)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(ledger, allocator)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/report", httpHandler.Report)

	httpServer := &http.Server{
		Addr:    cfg.App.Port,
		Handler: mux,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.App.Port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	log.Info("warehouse engine started",
		zap.Int("units", len(cfg.Dispatch.UnitNames)),
		zap.String("order_queue", cfg.Queue.OrderQueue),
		zap.String("transport_queue", cfg.Queue.TransportQueue),
	)

	<-ctx.Done()
	log.Info("shutting down...")

	// Intake loops exit on context cancellation, in-flight transports
	// finish or observe the cancellation, then the forward channel can
	// close and the storage consumer drains.
	consumers.Wait()
	pool.Wait()
	ledger.Close()
	storage.Wait()
	log.Info("consumers stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	rdb.Close()
	log.Info("connections closed")
}
