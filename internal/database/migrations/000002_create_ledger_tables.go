package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/jobsetu/backend/internal/models"
	"gorm.io/gorm"
)

func createLedgerTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_ledger_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Coupon{},
				&models.RedemptionRecord{},
				&models.UniqueRedemption{},
				&models.SameRedemption{},
				&models.GenericRedemption{},
				&models.CoinHistoryEntry{},
				&models.ReferConfig{},
				&models.ReferralSet{},
				&models.ReferralReward{},
				&models.Plan{},
				&models.PaymentOrder{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				"coupons",
				"redemption_records",
				"unique_redemptions",
				"same_redemptions",
				"generic_redemptions",
				"coin_history_entries",
				"refer_configs",
				"referral_sets",
				"referral_rewards",
				"plans",
				"payment_orders",
			)
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createLedgerTablesMigration())
}
