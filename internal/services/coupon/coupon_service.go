package coupon

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/ledger"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCoupon covers unknown codes and definitions whose coin
	// value is zero or negative.
	ErrInvalidCoupon = errors.New("invalid coupon code")

	// ErrUserNotFound means the acting user is not in the login directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongUserType means the coupon is restricted to another user type.
	ErrWrongUserType = errors.New("coupon not valid for this user type")

	// ErrAlreadyUsed means this user has redeemed this exact code before.
	ErrAlreadyUsed = errors.New("coupon already used")

	// ErrAlreadyHasCoupon rejects a "Unique" coupon while a non-expired
	// balance exists.
	ErrAlreadyHasCoupon = errors.New("an active coupon balance already exists")

	// ErrNotEligibleYet means now is outside the coupon's validity window.
	ErrNotEligibleYet = errors.New("coupon is not valid at this time")
)

// Codes that skip the user-type gate entirely.
var bypassCodes = map[string]struct{}{
	"inaugural2025": {},
	"teacher2025":   {},
}

// Redemption outcomes.
const (
	OutcomeCredited     = "credited"
	OutcomeExpiredReset = "expired_reset"
)

// RedeemResult is what a successful Redeem call reports back to the UI.
type RedeemResult struct {
	Outcome  string    `json:"outcome"`
	Credited int64     `json:"credited"`
	Balance  int64     `json:"balance"`
	ValidTo  time.Time `json:"valid_to"`
}

// Service runs the coupon redemption workflow.
type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	queue  queue.Enqueuer
}

// NewService creates a new coupon service.
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, q queue.Enqueuer) *Service {
	return &Service{db: db, ledger: ledgerSvc, queue: q}
}

// Redeem validates the entered code against the acting user, computes the new
// coin balance and persists it. Every rejection is terminal; the history
// append and the notification are handed to the queue and never fail the
// redemption.
func (s *Service) Redeem(firebaseUID, rawCode string) (*RedeemResult, error) {
	now := time.Now()
	code := strings.ToLower(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	var cpn models.Coupon
	err := s.db.Where("code = ?", code).First(&cpn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCoupon
		}
		return nil, fmt.Errorf("error finding coupon: %w", err)
	}
	if cpn.CoinValue <= 0 {
		return nil, ErrInvalidCoupon
	}

	var user models.User
	err = s.db.Where("firebase_uid = ?", firebaseUID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if _, bypass := bypassCodes[code]; !bypass {
		if !strings.EqualFold(cpn.UserType, user.UserType) {
			return nil, ErrWrongUserType
		}
	}

	record, err := s.ledger.GetRecord(firebaseUID)
	if err != nil {
		return nil, err
	}
	used, err := s.alreadyUsed(firebaseUID, code, record)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrAlreadyUsed
	}

	if now.Before(cpn.ValidFrom) || now.After(cpn.ValidTo) {
		return nil, ErrNotEligibleYet
	}

	// A lapsed record with no remaining grace window is reset instead of
	// credited; the user has to redeem again afterwards.
	if record != nil && record.ExpiredAt(now) && !record.InGraceAt(now) {
		if err := s.ledger.ResetExpired(record); err != nil {
			return nil, err
		}
		return &RedeemResult{Outcome: OutcomeExpiredReset, Balance: 0, ValidTo: record.ValidTo}, nil
	}

	months := cpn.CoinExpiryMonths
	if months <= 0 {
		months = 1
	}
	redeemValid := now.AddDate(0, months, 0)

	finalValidTo := cpn.ValidTo
	if record != nil && record.ValidTo.After(finalValidTo) {
		finalValidTo = record.ValidTo
	}

	live := record != nil && !record.ExpiredAt(now)

	var newBalance int64
	switch cpn.Feature {
	case models.CouponFeatureUnique:
		if live {
			return nil, ErrAlreadyHasCoupon
		}
		newBalance = cpn.CoinValue
		audit := models.UniqueRedemption{
			FirebaseUID: firebaseUID,
			CouponCode:  code,
			CoinValue:   cpn.CoinValue,
			ValidFrom:   cpn.ValidFrom,
			ValidTo:     finalValidTo,
			RedeemAt:    now,
			RedeemValid: redeemValid,
		}
		// The unique index on (firebase_uid, coupon_code) is the real
		// once-ever guard; a concurrent duplicate lands here.
		if err := s.db.Create(&audit).Error; err != nil {
			return nil, ErrAlreadyUsed
		}
	case models.CouponFeatureSame:
		var prev int64
		if live {
			prev = record.CoinValue
		}
		newBalance = prev + cpn.CoinValue
		if newBalance < 0 {
			return nil, ledger.ErrNegativeCoinValue
		}
		audit := models.SameRedemption{
			FirebaseUID: firebaseUID,
			CouponCode:  code,
			CoinValue:   cpn.CoinValue,
			ValidFrom:   cpn.ValidFrom,
			ValidTo:     finalValidTo,
			RedeemAt:    now,
			RedeemValid: redeemValid,
		}
		if err := s.db.Create(&audit).Error; err != nil {
			return nil, ErrAlreadyUsed
		}
	default:
		newBalance = cpn.CoinValue
		audit := models.GenericRedemption{
			FirebaseUID: firebaseUID,
			CouponCode:  code,
			CoinValue:   cpn.CoinValue,
			ValidFrom:   cpn.ValidFrom,
			ValidTo:     finalValidTo,
			RedeemAt:    now,
			RedeemValid: redeemValid,
		}
		if err := s.db.Create(&audit).Error; err != nil {
			return nil, ErrAlreadyUsed
		}
	}

	updated := models.RedemptionRecord{
		FirebaseUID: firebaseUID,
		CouponCode:  code,
		CoinValue:   newBalance,
		ValidFrom:   cpn.ValidFrom,
		ValidTo:     finalValidTo,
		RedeemAt:    now,
		RedeemValid: redeemValid,
		IsCoupon:    1,
	}
	if record != nil {
		updated.ValidFrom = record.ValidFrom
		updated.IsRefer = record.IsRefer
		updated.IsRazorPay = record.IsRazorPay
	}
	if err := s.ledger.UpsertRecord(&updated); err != nil {
		return nil, err
	}

	if _, err := s.queue.EnqueueJob(queue.JobTypeAppendCoinHistory, queue.CoinHistoryJobPayload{
		FirebaseUID: firebaseUID,
		CoinValue:   cpn.CoinValue,
		Reason:      "Coupon code applied",
	}); err != nil {
		log.Printf("Failed to enqueue coin history for coupon %s: %v", code, err)
	}

	if user.PhoneNumber != "" {
		if _, err := s.queue.EnqueueJob(queue.JobTypeSendNotification, queue.NotificationJobPayload{
			Phone:    user.PhoneNumber,
			Channel:  "all",
			Template: "coupon_applied",
			Params: map[string]string{
				"name":  user.Name,
				"coins": fmt.Sprintf("%d", cpn.CoinValue),
			},
		}); err != nil {
			log.Printf("Failed to enqueue coupon notification: %v", err)
		}
	}

	return &RedeemResult{
		Outcome:  OutcomeCredited,
		Credited: cpn.CoinValue,
		Balance:  newBalance,
		ValidTo:  finalValidTo,
	}, nil
}

// List returns all coupon definitions.
func (s *Service) List() ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := s.db.Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("error finding coupons: %w", err)
	}
	return coupons, nil
}

// alreadyUsed checks the general record and the audit tables for a prior
// redemption of this code by this user.
func (s *Service) alreadyUsed(firebaseUID, code string, record *models.RedemptionRecord) (bool, error) {
	if record != nil && strings.EqualFold(record.CouponCode, code) {
		return true, nil
	}

	var count int64
	if err := s.db.Model(&models.UniqueRedemption{}).
		Where("firebase_uid = ? AND coupon_code = ?", firebaseUID, code).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking unique redemptions: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	if err := s.db.Model(&models.SameRedemption{}).
		Where("firebase_uid = ? AND coupon_code = ?", firebaseUID, code).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking same redemptions: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	if err := s.db.Model(&models.GenericRedemption{}).
		Where("firebase_uid = ? AND coupon_code = ?", firebaseUID, code).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking generic redemptions: %w", err)
	}
	return count > 0, nil
}
