package models

import "time"

// Coupon features. Any other value is treated as a generic coupon.
const (
	CouponFeatureUnique = "Unique"
	CouponFeatureSame   = "Same"
)

// Coupon is a coupon definition. Codes are matched case-insensitively;
// the code column stores the lowercased form.
type Coupon struct {
	Base
	Code             string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"coupon_code"`
	UserType         string    `gorm:"type:varchar(50)" json:"user_type"`
	Feature          string    `gorm:"type:varchar(50)" json:"coupon_feature"`
	ValidFrom        time.Time `json:"valid_from"`
	ValidTo          time.Time `json:"valid_to"`
	CoinValue        int64     `gorm:"not null" json:"coin_value"`
	CoinExpiryMonths int       `gorm:"default:0" json:"coin_expiry"` // months until credited coins lapse, 0 means the one-month default
}

// UniqueRedemption is the parallel audit row written when a "Unique" coupon
// is redeemed. The unique index doubles as the guard against the same user
// redeeming the same code twice through concurrent requests.
type UniqueRedemption struct {
	Base
	FirebaseUID string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_unique_redeem_user_code" json:"firebase_uid"`
	CouponCode  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_unique_redeem_user_code" json:"coupon_code"`
	CoinValue   int64     `json:"coin_value"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	RedeemAt    time.Time `json:"redeem_at"`
	RedeemValid time.Time `json:"redeem_valid"`
}

// GenericRedemption is the audit row for coupons with no feature, so the
// once-per-user-per-code guard holds for them too.
type GenericRedemption struct {
	Base
	FirebaseUID string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_generic_redeem_user_code" json:"firebase_uid"`
	CouponCode  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_generic_redeem_user_code" json:"coupon_code"`
	CoinValue   int64     `json:"coin_value"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	RedeemAt    time.Time `json:"redeem_at"`
	RedeemValid time.Time `json:"redeem_valid"`
}

// SameRedemption is the parallel audit row for stacking ("Same") coupons,
// with the same per-user-per-code uniqueness guard.
type SameRedemption struct {
	Base
	FirebaseUID string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_same_redeem_user_code" json:"firebase_uid"`
	CouponCode  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_same_redeem_user_code" json:"coupon_code"`
	CoinValue   int64     `json:"coin_value"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
	RedeemAt    time.Time `json:"redeem_at"`
	RedeemValid time.Time `json:"redeem_valid"`
}
