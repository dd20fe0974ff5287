package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/jobsetu/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNegativeCoinValue rejects any write that would store a negative
	// balance. Callers map this to a 400 whose message contains "negative";
	// the frontend looks for that substring.
	ErrNegativeCoinValue = errors.New("coin value must not be negative")

	// ErrInsufficientBalance rejects debits larger than the live balance.
	ErrInsufficientBalance = errors.New("insufficient coin balance")
)

// Service owns the general ledger: the one-row-per-user RedemptionRecord and
// the append-only coin history.
type Service struct {
	db *gorm.DB
}

// NewService creates a new ledger service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetRecord returns a user's current general ledger record, or nil when the
// user has never redeemed anything.
func (s *Service) GetRecord(firebaseUID string) (*models.RedemptionRecord, error) {
	var record models.RedemptionRecord
	err := s.db.Where("firebase_uid = ?", firebaseUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding redemption record: %w", err)
	}
	return &record, nil
}

// EffectiveBalance returns the spendable balance: zero when no record exists
// or its validity window has lapsed.
func (s *Service) EffectiveBalance(firebaseUID string, now time.Time) (int64, error) {
	record, err := s.GetRecord(firebaseUID)
	if err != nil {
		return 0, err
	}
	if record == nil || record.ExpiredAt(now) {
		return 0, nil
	}
	return record.CoinValue, nil
}

// UpsertRecord creates the user's general record or updates it in place.
// A negative coin value is rejected before anything touches the database.
func (s *Service) UpsertRecord(record *models.RedemptionRecord) error {
	if record.CoinValue < 0 {
		return ErrNegativeCoinValue
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing models.RedemptionRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("firebase_uid = ?", record.FirebaseUID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return fmt.Errorf("error finding redemption record: %w", err)
		}
		if err := tx.Create(record).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("error creating redemption record: %w", err)
		}
		return commit(tx)
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := tx.Save(record).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("error updating redemption record: %w", err)
	}
	return commit(tx)
}

// ResetExpired zeroes out a lapsed record. The coupon and referral flags are
// preserved so the next credit keeps its provenance.
func (s *Service) ResetExpired(record *models.RedemptionRecord) error {
	record.CoinValue = 0
	record.RedeemAt = time.Now()
	if err := s.db.Save(record).Error; err != nil {
		return fmt.Errorf("error resetting expired record: %w", err)
	}
	return nil
}

// Debit spends coins from a live record and writes the audit entry in the
// same transaction. Expired records debit as zero-balance.
func (s *Service) Debit(firebaseUID string, amount int64, candidateID, jobID, reason string) (*models.RedemptionRecord, error) {
	if amount < 0 {
		return nil, ErrNegativeCoinValue
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var record models.RedemptionRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("firebase_uid = ?", firebaseUID).
		First(&record).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("error finding redemption record: %w", err)
	}

	now := time.Now()
	balance := record.CoinValue
	if record.ExpiredAt(now) {
		balance = 0
	}
	if balance < amount {
		tx.Rollback()
		return nil, ErrInsufficientBalance
	}

	record.CoinValue = balance - amount
	if err := tx.Save(&record).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("error updating redemption record: %w", err)
	}

	entry := models.CoinHistoryEntry{
		FirebaseUID: firebaseUID,
		CandidateID: candidateID,
		JobID:       jobID,
		Reduction:   amount,
		Reason:      reason,
	}
	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("error creating coin history entry: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return &record, nil
}

// CreditWithTx adds coins to a user's record inside an existing transaction.
// An expired record contributes nothing to the new balance. The validity
// window becomes now+validityDays, or the existing valid_to when that is
// later. Exactly one of the provenance flags is raised; the others keep
// their prior values.
func (s *Service) CreditWithTx(tx *gorm.DB, firebaseUID string, amount int64, couponCode string, validityDays int, markRefer, markRazorPay bool) (*models.RedemptionRecord, error) {
	if amount < 0 {
		return nil, ErrNegativeCoinValue
	}

	now := time.Now()
	newValidTo := now.AddDate(0, 0, validityDays)

	var record models.RedemptionRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("firebase_uid = ?", firebaseUID).
		First(&record).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding redemption record: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.RedemptionRecord{
			FirebaseUID: firebaseUID,
			CouponCode:  couponCode,
			CoinValue:   amount,
			ValidFrom:   now,
			ValidTo:     newValidTo,
			RedeemAt:    now,
			RedeemValid: newValidTo,
		}
		if markRefer {
			record.IsRefer = 1
		}
		if markRazorPay {
			record.IsRazorPay = 1
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, fmt.Errorf("error creating redemption record: %w", err)
		}
		return &record, nil
	}

	prev := record.CoinValue
	if record.ExpiredAt(now) {
		prev = 0
	}
	record.CoinValue = prev + amount
	if record.CoinValue < 0 {
		return nil, ErrNegativeCoinValue
	}
	if record.ValidTo.Before(newValidTo) {
		record.ValidTo = newValidTo
	}
	record.CouponCode = couponCode
	record.RedeemAt = now
	record.RedeemValid = record.ValidTo
	if markRefer {
		record.IsRefer = 1
	}
	if markRazorPay {
		record.IsRazorPay = 1
	}

	if err := tx.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("error updating redemption record: %w", err)
	}
	return &record, nil
}

// AppendHistory inserts one audit row. History rows are never updated or
// deleted.
func (s *Service) AppendHistory(entry *models.CoinHistoryEntry) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("error creating coin history entry: %w", err)
	}
	return nil
}

// History returns a user's audit log, newest first.
func (s *Service) History(firebaseUID string, page, pageSize int) ([]models.CoinHistoryEntry, int64, error) {
	var entries []models.CoinHistoryEntry
	var total int64

	if err := s.db.Model(&models.CoinHistoryEntry{}).Where("firebase_uid = ?", firebaseUID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting coin history: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := s.db.Where("firebase_uid = ?", firebaseUID).
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding coin history: %w", err)
	}

	return entries, total, nil
}

// ReferCouponValue returns the configured referral reward amount, falling
// back to the default when the table is empty.
func (s *Service) ReferCouponValue(fallback int64) int64 {
	var cfg models.ReferConfig
	err := s.db.Order("created_at DESC").First(&cfg).Error
	if err != nil || cfg.CouponValue <= 0 {
		return fallback
	}
	return cfg.CouponValue
}

func commit(tx *gorm.DB) error {
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
