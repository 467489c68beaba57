package main

import (
	"log"

	"chattr.app/backend/internal/bootstrap"
	"chattr.app/backend/internal/config"
	"chattr.app/backend/internal/entity"
	"chattr.app/backend/internal/server"
	"chattr.app/backend/pkg/database"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db := database.Connect(cfg.Database)
	if err := database.Migrate(db, entity.Models()...); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if _, err := bootstrap.SeedDemoUsers(db); err != nil {
			log.Fatalf("failed to seed demo users: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
	} else {
		log.Println("REDIS_URL not set, realtime events and rate limits are disabled")
	}

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
