package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"fincheck-controlplane/pkg/accesscontrol"
	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/db"
	"fincheck-controlplane/pkg/gen"
	"fincheck-controlplane/pkg/health"
	"fincheck-controlplane/pkg/httpapi"
	"fincheck-controlplane/pkg/logger"
	"fincheck-controlplane/pkg/profiling"
	"fincheck-controlplane/pkg/redis"
	"fincheck-controlplane/pkg/sequence"
	"fincheck-controlplane/pkg/server"
	"fincheck-controlplane/pkg/task"
	"fincheck-controlplane/services/affiliate"
	"fincheck-controlplane/services/badge"
	"fincheck-controlplane/services/notification"
	"fincheck-controlplane/services/payment"
	"fincheck-controlplane/services/result"
	"fincheck-controlplane/services/schema"
	"fincheck-controlplane/services/scoring"
	"fincheck-controlplane/services/voucher"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		profiling.Module,
		db.Module,
		schema.Module,
		redis.Module,
		gen.Module,
		sequence.Module,
		task.Client,
		accesscontrol.Module,
		health.Module,
		server.ProvideHTTPServer,
		httpapi.Module,

		notification.Module,
		notification.HTTP,
		badge.Module,
		badge.HTTP,
		result.Module,
		result.HTTP,
		scoring.HTTP,
		affiliate.Module,
		affiliate.HTTP,
		voucher.Module,
		voucher.HTTP,
		payment.Module,
		payment.HTTP,

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
