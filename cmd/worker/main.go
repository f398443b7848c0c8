package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"smartattendance/internal/config"
	"smartattendance/internal/enroll"
	"smartattendance/internal/faceclient"
	"smartattendance/internal/logging"
	"smartattendance/internal/queue"
	"smartattendance/internal/store"
)

// Worker consumes face enrollment jobs from Redis and forwards them to the face service.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.QueueBackend != "redis" {
		logger.Fatal("the worker needs QUEUE_BACKEND=redis; the api consumes in-memory queues itself")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis not reachable yet, will keep retrying", zap.Error(err))
	}

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	q.OnError = func(err error) { logger.Warn("queue", zap.Error(err)) }

	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)
	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			logger.Warn("face service not available, jobs will fail until it is", zap.Error(err))
		} else {
			logger.Info("face service connected", zap.String("url", cfg.FaceServiceURL))
		}
	}

	if err := enroll.NewWorker(face, logger.Named("enroll")).Run(ctx, q); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
