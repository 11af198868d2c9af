// Command syncusers reconciles the stored user directory against the
// Slack workspace roster. Run it from cron or by hand after profile
// changes; the ingestion path only ever creates bare user rows.
package main

import (
	"context"
	"os"
	"time"

	"chatlog/backend/pkg/config"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/slackclient"
	usermodels "chatlog/backend/user/models"
	userrepo "chatlog/backend/user/repository"
	userservice "chatlog/backend/user/service"
)

func main() {
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&usermodels.User{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	users := userrepo.NewGormUserRepository(db)
	slack := slackclient.New(cfg.Slack.BotToken)
	svc := userservice.NewUserService(users, slack, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	created, updated, err := svc.SyncDirectory(ctx)
	if err != nil {
		log.LogError(err, "Directory sync failed")
		os.Exit(1)
	}

	log.Info("Directory sync complete", "created", created, "updated", updated)
}
