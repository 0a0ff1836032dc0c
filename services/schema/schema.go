package schema

import (
	"fincheck-controlplane/pkg/config"
	"fincheck-controlplane/pkg/db"
	"fincheck-controlplane/services/affiliate"
	"fincheck-controlplane/services/badge"
	"fincheck-controlplane/services/notification"
	"fincheck-controlplane/services/payment"
	"fincheck-controlplane/services/result"
	"fincheck-controlplane/services/voucher"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("schema",
	fx.Invoke(Migrate),
)

// Models lists every persisted entity.
func Models() []any {
	return []any{
		&result.TestResult{},
		&badge.UserBadge{},
		&notification.Notification{},
		&affiliate.AffiliateSetting{},
		&affiliate.UserAffiliate{},
		&affiliate.ReferralTransaction{},
		&affiliate.Withdrawal{},
		&voucher.Voucher{},
		&payment.Payment{},
	}
}

func Migrate(cfg *config.Config, conn *gorm.DB) error {
	return db.Migrate(cfg, conn, Models()...)
}
