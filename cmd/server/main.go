package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docConverter/cache"
	"docConverter/config"
	"docConverter/converter"
	"docConverter/executor"
	"docConverter/formats"
	"docConverter/handlers"
	"docConverter/metrics"
	"docConverter/middleware"
	"docConverter/queue"
	"docConverter/service"
	"docConverter/storage"
	"docConverter/store"
	"docConverter/sweeper"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Conversion service starting", zap.String("port", cfg.Port))

	blobs, err := newStorage(cfg)
	if err != nil {
		logger.Fatal("Artifact storage init failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskStore, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Task store init failed", zap.Error(err))
	}
	defer closeStore()

	var statusCache *cache.StatusCache
	if cfg.RedisAddr != "" {
		statusCache, err = cache.Connect(cfg.RedisAddr)
		if err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		defer statusCache.Close()
		logger.Info("Status cache connected", zap.String("addr", cfg.RedisAddr))
	}

	engine := converter.NewEngine(cfg.EngineURL)
	registry := converter.NewDefaultRegistry(engine)
	if err := registry.Validate(formats.Pairs()); err != nil {
		logger.Fatal("Converter registry incomplete", zap.Error(err))
	}

	taskQueue, err := newQueue(cfg)
	if err != nil {
		logger.Fatal("Task queue init failed", zap.Error(err))
	}
	defer taskQueue.Close()

	exec := executor.New(taskStore, blobs, registry, statusCache, cfg.ConversionTimeout, logger)
	pool := executor.NewPool(cfg.WorkerCount)

	go func() {
		err := taskQueue.Consume(ctx, func(ctx context.Context, taskID string) {
			pool.Submit(ctx, taskID, exec.Execute)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("Queue consumer stopped", zap.Error(err))
		}
	}()

	sw := sweeper.New(taskStore, blobs, statusCache, sweeper.Config{
		Retention: cfg.RetentionWindow,
		Grace:     cfg.RecordGrace,
		Stale:     cfg.ProcessingTimeout,
		Interval:  cfg.SweepInterval,
	}, logger)
	go sw.Start(ctx)

	limits := service.Limits{
		SingleUploadBytes: cfg.MaxSingleUploadBytes,
		MergeUploadBytes:  cfg.MaxMergeUploadBytes,
	}
	taskService := service.NewTaskService(taskStore, blobs, taskQueue, statusCache, limits, logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger)

	mux := http.NewServeMux()
	taskHandler.Routes(mux)
	mux.Handle("/metrics", metrics.Handler())

	var handler http.Handler = mux
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.TraceID(handler)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("Server started", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("All workers stopped")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout, forcing exit")
	}
}

func newStorage(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewS3(storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		}), nil
	}
	return storage.NewLocal(cfg.DataDir)
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.StoreBackend == "postgres" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	return store.NewMemory(), func() {}, nil
}

func newQueue(cfg *config.Config) (queue.Queue, error) {
	if cfg.QueueBackend == "kafka" {
		return queue.NewKafka(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaGroupID, cfg.KafkaTopic)
	}
	return queue.NewChannel(cfg.QueueSize), nil
}
