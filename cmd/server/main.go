package main

import (
	"log"

	"campusshare.app/api/internal/config"
	"campusshare.app/api/internal/entity"
	"campusshare.app/api/internal/server"
	"campusshare.app/api/pkg/database"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(database.Options{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := database.NewRedisClient(cfg.RedisURL)
	if redisClient == nil {
		log.Println("Redis unavailable, view counters, rate limits and live notifications are disabled")
	}

	srv := server.NewServer(cfg, db, redisClient)

	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Listing{},
		&entity.Proposal{},
		&entity.StudyGroup{},
		&entity.GroupMember{},
		&entity.Favorite{},
		&entity.Notification{},
	)
}
