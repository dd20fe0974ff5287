package models

import "time"

// RedemptionRecord is the general ledger: at most one logically-current row
// per user, tracking the coin balance attributable to coupons, referrals and
// plan purchases. The flags are 0/1 ints to keep the wire shape the clients
// already consume.
type RedemptionRecord struct {
	Base
	FirebaseUID string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"firebase_uid"`
	CouponCode  string    `gorm:"type:varchar(100)" json:"coupon_code"`
	CoinValue   int64     `gorm:"not null;default:0" json:"coin_value"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	RedeemAt    time.Time `json:"redeem_at"`
	RedeemValid time.Time `json:"redeem_valid"` // grace date after which an expired balance may be reset
	IsCoupon    int       `gorm:"default:0" json:"is_coupon"`
	IsRefer     int       `gorm:"default:0" json:"is_refer"`
	IsRazorPay  int       `gorm:"default:0" json:"is_razor_pay"`
}

// ExpiredAt reports whether the record's validity window has lapsed.
func (r *RedemptionRecord) ExpiredAt(now time.Time) bool {
	return r.ValidTo.Before(now)
}

// InGraceAt reports whether a future-dated redeem_valid window still covers
// the record, which blocks the expiry reset.
func (r *RedemptionRecord) InGraceAt(now time.Time) bool {
	return r.RedeemValid.After(now)
}

// CoinHistoryEntry is the append-only audit log. Rows are inserted once and
// never updated or deleted.
type CoinHistoryEntry struct {
	Base
	FirebaseUID string `gorm:"type:varchar(128);index;not null" json:"firebase_uid"`
	CandidateID string `gorm:"type:varchar(128)" json:"candidate_id"`
	JobID       string `gorm:"type:varchar(128)" json:"job_id"`
	CoinValue   int64  `json:"coin_value"`
	Reduction   int64  `json:"reduction"`
	Reason      string `gorm:"type:text" json:"reason"`
}

// ReferConfig holds the configurable referral reward amount. The read path
// returns the most recent row; 8000 is the fallback when the table is empty.
type ReferConfig struct {
	Base
	CouponValue int64 `gorm:"not null" json:"coupon_value"`
}
