package ledger

import (
	"testing"
	"time"

	"github.com/jobsetu/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.RedemptionRecord{},
		&models.CoinHistoryEntry{},
		&models.ReferConfig{},
	))
	return db
}

func liveRecord(uid string, coins int64) *models.RedemptionRecord {
	now := time.Now()
	return &models.RedemptionRecord{
		FirebaseUID: uid,
		CoinValue:   coins,
		ValidFrom:   now.AddDate(0, 0, -1),
		ValidTo:     now.AddDate(0, 0, 30),
		RedeemAt:    now,
		RedeemValid: now.AddDate(0, 1, 0),
	}
}

func TestGetRecordMissing(t *testing.T) {
	svc := NewService(setupTestDB(t))

	record, err := svc.GetRecord("nobody")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestUpsertRecordCreateThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	record := liveRecord("uid-1", 200)
	require.NoError(t, svc.UpsertRecord(record))

	record.CoinValue = 350
	require.NoError(t, svc.UpsertRecord(record))

	var count int64
	require.NoError(t, db.Model(&models.RedemptionRecord{}).Where("firebase_uid = ?", "uid-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := svc.GetRecord("uid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(350), stored.CoinValue)
}

func TestUpsertRecordRejectsNegative(t *testing.T) {
	svc := NewService(setupTestDB(t))

	record := liveRecord("uid-1", -5)
	err := svc.UpsertRecord(record)
	assert.ErrorIs(t, err, ErrNegativeCoinValue)

	stored, err := svc.GetRecord("uid-1")
	require.NoError(t, err)
	assert.Nil(t, stored, "nothing should be written on rejection")
}

func TestEffectiveBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	now := time.Now()

	balance, err := svc.EffectiveBalance("nobody", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	require.NoError(t, svc.UpsertRecord(liveRecord("uid-1", 120)))
	balance, err = svc.EffectiveBalance("uid-1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)

	expired := liveRecord("uid-2", 500)
	expired.ValidTo = now.AddDate(0, 0, -1)
	require.NoError(t, svc.UpsertRecord(expired))
	balance, err = svc.EffectiveBalance("uid-2", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance, "lapsed balances spend as zero")
}

func TestResetExpiredPreservesFlags(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	record := liveRecord("uid-1", 900)
	record.IsCoupon = 1
	record.IsRefer = 1
	require.NoError(t, svc.UpsertRecord(record))

	require.NoError(t, svc.ResetExpired(record))

	stored, err := svc.GetRecord("uid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.CoinValue)
	assert.Equal(t, 1, stored.IsCoupon)
	assert.Equal(t, 1, stored.IsRefer)
}

func TestDebit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	require.NoError(t, svc.UpsertRecord(liveRecord("uid-1", 100)))

	record, err := svc.Debit("uid-1", 30, "cand-1", "job-1", "Applied to job")
	require.NoError(t, err)
	assert.Equal(t, int64(70), record.CoinValue)

	var entry models.CoinHistoryEntry
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&entry).Error)
	assert.Equal(t, int64(30), entry.Reduction)
	assert.Equal(t, "job-1", entry.JobID)
	assert.Equal(t, "Applied to job", entry.Reason)
}

func TestDebitInsufficient(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.Debit("nobody", 10, "", "", "x")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, svc.UpsertRecord(liveRecord("uid-1", 5)))
	_, err = svc.Debit("uid-1", 10, "", "", "x")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// the failed attempt must not write an audit row
	var count int64
	require.NoError(t, db.Model(&models.CoinHistoryEntry{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDebitExpiredRecordSpendsAsZero(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	expired := liveRecord("uid-1", 1000)
	expired.ValidTo = time.Now().AddDate(0, 0, -1)
	require.NoError(t, svc.UpsertRecord(expired))

	_, err := svc.Debit("uid-1", 1, "", "", "x")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCreditWithTxNewRecord(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	tx := db.Begin()
	record, err := svc.CreditWithTx(tx, "uid-1", 8000, "refer", 365, true, false)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	assert.Equal(t, int64(8000), record.CoinValue)
	assert.Equal(t, 1, record.IsRefer)
	assert.Equal(t, 0, record.IsRazorPay)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), record.ValidTo, time.Minute)
}

func TestCreditWithTxAddsToLiveBalance(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	require.NoError(t, svc.UpsertRecord(liveRecord("uid-1", 200)))

	tx := db.Begin()
	record, err := svc.CreditWithTx(tx, "uid-1", 8000, "plan-receipt", 365, false, true)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	assert.Equal(t, int64(8200), record.CoinValue)
	assert.Equal(t, 1, record.IsRazorPay)
}

func TestCreditWithTxExpiredContributesNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	expired := liveRecord("uid-1", 500)
	expired.ValidTo = time.Now().AddDate(0, 0, -1)
	require.NoError(t, svc.UpsertRecord(expired))

	tx := db.Begin()
	record, err := svc.CreditWithTx(tx, "uid-1", 100, "c", 30, false, false)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	assert.Equal(t, int64(100), record.CoinValue)
}

func TestCreditWithTxKeepsLaterValidTo(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	record := liveRecord("uid-1", 100)
	record.ValidTo = time.Now().AddDate(2, 0, 0)
	require.NoError(t, svc.UpsertRecord(record))

	tx := db.Begin()
	updated, err := svc.CreditWithTx(tx, "uid-1", 50, "c", 30, false, false)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	assert.WithinDuration(t, record.ValidTo, updated.ValidTo, time.Second,
		"an existing later valid_to wins over the credit window")
}

func TestHistoryPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AppendHistory(&models.CoinHistoryEntry{
			FirebaseUID: "uid-1",
			CoinValue:   int64(i),
			Reason:      "Coupon code applied",
		}))
	}

	entries, total, err := svc.History("uid-1", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, entries, 3)

	entries, _, err = svc.History("uid-1", 2, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReferCouponValue(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	assert.Equal(t, int64(8000), svc.ReferCouponValue(8000))

	require.NoError(t, db.Create(&models.ReferConfig{CouponValue: 5000}).Error)
	assert.Equal(t, int64(5000), svc.ReferCouponValue(8000))
}
