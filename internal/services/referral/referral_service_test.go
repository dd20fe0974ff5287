package referral

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeQueue struct {
	jobs []queue.JobType
}

func (f *fakeQueue) EnqueueJob(jobType queue.JobType, payload interface{}) (string, error) {
	f.jobs = append(f.jobs, jobType)
	return uuid.New().String(), nil
}

func setupService(t *testing.T) (*Service, *gorm.DB, *fakeQueue) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ReferralSet{},
		&models.ReferralReward{},
		&models.RedemptionRecord{},
		&models.CoinHistoryEntry{},
		&models.ReferConfig{},
	))

	q := &fakeQueue{}
	return NewService(db, ledger.NewService(db), q), db, q
}

// testContacts returns n distinct valid numbers.
func testContacts(n int) []string {
	contacts := make([]string, n)
	for i := 0; i < n; i++ {
		contacts[i] = fmt.Sprintf("98765432%02d", i)
	}
	return contacts
}

func registerUsers(t *testing.T, db *gorm.DB, numbers []string) {
	for i, num := range numbers {
		require.NoError(t, db.Create(&models.User{
			FirebaseUID: fmt.Sprintf("registered-%d-%s", i, num),
			UserType:    models.UserTypeCandidate,
			PhoneNumber: "+91" + num,
		}).Error)
	}
}

func TestSaveSetValidation(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.SaveSet("uid-1", []string{"12345"})
	assert.ErrorIs(t, err, ErrInvalidContact)

	_, err = svc.SaveSet("uid-1", []string{"5876543210"})
	assert.ErrorIs(t, err, ErrInvalidContact)

	// same number in two spellings
	_, err = svc.SaveSet("uid-1", []string{"9876543210", "+91 98765 43210"})
	assert.ErrorIs(t, err, ErrDuplicateContact)

	_, err = svc.SaveSet("uid-1", testContacts(11))
	assert.ErrorIs(t, err, ErrTooManyContacts)
}

func TestSaveSetRejectsRegisteredNewContact(t *testing.T) {
	svc, db, _ := setupService(t)
	registerUsers(t, db, []string{"9876543210"})

	_, err := svc.SaveSet("uid-1", []string{"9876543210"})
	assert.ErrorIs(t, err, ErrContactRegistered)
}

func TestSaveSetAndGet(t *testing.T) {
	svc, _, _ := setupService(t)

	contacts := testContacts(3)
	view, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	assert.Len(t, view.Contacts, 3)
	assert.Equal(t, 0, view.RegisteredCount)
	assert.False(t, view.RewardGranted)

	got, err := svc.GetSet("uid-1")
	require.NoError(t, err)
	assert.Equal(t, view.Contacts, got.Contacts)
}

func TestGetSetMissingReturnsEmptyView(t *testing.T) {
	svc, _, _ := setupService(t)

	view, err := svc.GetSet("nobody")
	require.NoError(t, err)
	assert.Empty(t, view.Contacts)
	assert.False(t, view.RewardGranted)
}

func TestKeptContactMayRegisterLater(t *testing.T) {
	svc, db, _ := setupService(t)

	contacts := testContacts(2)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)

	// one of the referred numbers signs up afterwards
	registerUsers(t, db, contacts[:1])

	// re-saving the same set keeps the now-registered number
	view, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	assert.Equal(t, 1, view.RegisteredCount)
}

func TestRewardGrantedAtThreshold(t *testing.T) {
	svc, db, q := setupService(t)

	contacts := testContacts(5)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)

	registerUsers(t, db, contacts)

	view, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	assert.Equal(t, 5, view.RegisteredCount)
	assert.True(t, view.RewardGranted)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(DefaultRewardCoins), record.CoinValue)
	assert.Equal(t, 1, record.IsRefer)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, rewardValidityDays), record.ValidTo, time.Minute)

	var reward models.ReferralReward
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&reward).Error)
	assert.Equal(t, 5, reward.RegisteredCount)

	assert.Contains(t, q.jobs, queue.JobTypeAppendCoinHistory)
}

func TestRewardNotGrantedBelowThreshold(t *testing.T) {
	svc, db, _ := setupService(t)

	contacts := testContacts(4)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	registerUsers(t, db, contacts)

	view, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	assert.Equal(t, 4, view.RegisteredCount)
	assert.False(t, view.RewardGranted)

	var count int64
	require.NoError(t, db.Model(&models.ReferralReward{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRewardGrantedOnlyOnce(t *testing.T) {
	svc, db, _ := setupService(t)

	contacts := testContacts(5)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	registerUsers(t, db, contacts)

	_, err = svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	_, err = svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(DefaultRewardCoins), record.CoinValue)

	var count int64
	require.NoError(t, db.Model(&models.ReferralReward{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRewardWithheldWhileBalanceAboveFloor(t *testing.T) {
	svc, db, _ := setupService(t)

	now := time.Now()
	require.NoError(t, db.Create(&models.RedemptionRecord{
		FirebaseUID: "uid-1",
		CoinValue:   500,
		ValidFrom:   now.AddDate(0, 0, -1),
		ValidTo:     now.AddDate(0, 1, 0),
		RedeemAt:    now,
		RedeemValid: now.AddDate(0, 1, 0),
	}).Error)

	contacts := testContacts(5)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	registerUsers(t, db, contacts)

	view, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	assert.False(t, view.RewardGranted)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(500), record.CoinValue, "existing balance stays untouched")
}

func TestRewardUsesConfiguredValue(t *testing.T) {
	svc, db, _ := setupService(t)
	require.NoError(t, db.Create(&models.ReferConfig{CouponValue: 5000}).Error)

	contacts := testContacts(5)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)
	registerUsers(t, db, contacts)

	_, err = svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(5000), record.CoinValue)
}

func TestSweepGrantsPendingRewards(t *testing.T) {
	svc, db, _ := setupService(t)

	contacts := testContacts(5)
	_, err := svc.SaveSet("uid-1", contacts)
	require.NoError(t, err)

	// the referred users register between saves; no client request follows
	registerUsers(t, db, contacts)

	require.NoError(t, svc.Sweep())

	var set models.ReferralSet
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&set).Error)
	assert.True(t, set.RewardGranted)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(DefaultRewardCoins), record.CoinValue)
}
