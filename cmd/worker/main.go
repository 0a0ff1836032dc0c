package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/db"
	"fincheck-controlplane/pkg/gen"
	"fincheck-controlplane/pkg/logger"
	"fincheck-controlplane/pkg/profiling"
	"fincheck-controlplane/pkg/redis"
	"fincheck-controlplane/pkg/task"
	"fincheck-controlplane/services/badge"
	"fincheck-controlplane/services/notification"
	"fincheck-controlplane/services/result"
)

// The worker drains the asynq queues: notification persistence and
// leaderboard rebuilds.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		gen.Module,
		task.Client,
		task.Server,

		notification.Module,
		notification.Worker,
		badge.Module,
		result.Module,
		result.Worker,

		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger}
})
