package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/api"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/config"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/redis"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/ai"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/manager"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/storage"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("FINETUNE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("FINETUNE_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// Redis is optional: job snapshots and dashboard stats fall back to
	// direct vendor calls without it.
	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, caching disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	aiService := ai.NewService(cfg.OpenAI)
	if !aiService.Configured() {
		log.Printf("OPENAI_API_KEY is not set; vendor operations will fail until configured")
	}
	store := manager.NewService(db, dbType)

	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	pollInterval := time.Duration(cfg.BasicConfig.JobPollInterval) * time.Second
	poller := worker.NewPoller(aiService, store, rdb, pollInterval)
	poller.Start(pollCtx)

	handlers := api.NewHandler(aiService, store, poller, rdb, cfg)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
