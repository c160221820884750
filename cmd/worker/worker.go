package main

import (
	"context"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"onboarding-copilot/internal/config"
	"onboarding-copilot/internal/logger"
	"onboarding-copilot/internal/queue"
)

// The worker drains the audit queue into MongoDB so the API's request
// path never blocks on audit persistence.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg)
	logger.Info("Starting audit worker")

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	handler := queue.NewAuditHandler(mongoClient.Database(cfg.DBName))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"audit": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskAuditLog, handler.HandleAuditLogTask)

	if err := srv.Run(mux); err != nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
}
