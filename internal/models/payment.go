package models

// Payment order lifecycle statuses.
const (
	PaymentStatusCreated = "created"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Plan is a purchasable subscription tier. Prices are stored in rupees;
// the gateway is charged the discounted price.
type Plan struct {
	Base
	Name            string `gorm:"type:varchar(100);not null" json:"planName"`
	Tier            string `gorm:"type:varchar(50)" json:"tier"`
	Coins           int64  `gorm:"not null" json:"coins"`
	Price           int64  `json:"price"`
	DiscountedPrice int64  `gorm:"not null" json:"discountedPrice"`
	Active          bool   `gorm:"default:true" json:"active"`
}

// PaymentOrder tracks one gateway order from creation through capture.
// GatewayOrderID and GatewayPaymentID are the identifiers Razorpay returns.
type PaymentOrder struct {
	Base
	FirebaseUID      string `gorm:"type:varchar(128);index;not null" json:"firebase_uid"`
	PlanName         string `gorm:"type:varchar(100)" json:"plan_name"`
	Coins            int64  `json:"coins"`
	Amount           int64  `gorm:"not null" json:"amount"` // smallest currency unit (paise)
	Currency         string `gorm:"type:varchar(3);default:'INR'" json:"currency"`
	Receipt          string `gorm:"type:varchar(100)" json:"receipt"`
	GatewayOrderID   string `gorm:"type:varchar(100);uniqueIndex" json:"order_id"`
	GatewayPaymentID string `gorm:"type:varchar(100)" json:"payment_id"`
	GatewaySignature string `gorm:"type:varchar(255)" json:"-"`
	Status           string `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
}
