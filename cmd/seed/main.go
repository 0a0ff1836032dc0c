package main

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/db"
	"fincheck-controlplane/pkg/errutil"
	"fincheck-controlplane/pkg/gen"
	"fincheck-controlplane/pkg/logger"
	"fincheck-controlplane/services/affiliate"
	"fincheck-controlplane/services/schema"
	"fincheck-controlplane/services/voucher"
)

// seed migrates the schema, creates the affiliate settings row and a few
// sample vouchers, then exits. Running it twice is harmless.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		gen.Module,
		schema.Module,
		fx.Invoke(seed),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	if err := app.Stop(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

var sampleVouchers = []voucher.CreateRequest{
	{Code: "WELCOME10", Name: "Welcome discount", DiscountPercent: 10, LimitUser: 100},
	{Code: "FINCHECK25", Name: "Launch promo", DiscountPercent: 25, LimitUser: 50},
	{Code: "FREEPASS", Name: "Full access for reviewers", DiscountPercent: 100, LimitUser: 5},
}

func seed(cfg *config.Config, conn *gorm.DB, node *snowflake.Node) error {
	ctx := context.Background()

	settings, err := affiliate.NewSettingsStore(conn, nil, cfg).Get(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("affiliate settings ready",
		zap.String("commission_percentage", settings.CommissionPercentage.String()),
		zap.String("discount_percentage", settings.DiscountPercentage.String()),
	)

	vouchers := voucher.NewService(voucher.ServiceParams{DB: conn, Node: node})
	expires := time.Now().AddDate(0, 3, 0)
	for _, req := range sampleVouchers {
		req.ExpiresAt = expires
		v, err := vouchers.Create(ctx, req)
		switch {
		case errutil.Is(err, errutil.StatusConflict):
			zap.L().Info("voucher already present", zap.String("code", req.Code))
		case err != nil:
			return err
		default:
			zap.L().Info("voucher created", zap.String("code", v.Code), zap.Int("discount_percent", v.DiscountPercent))
		}
	}
	return nil
}
