package payment

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/ledger"
	"github.com/jobsetu/backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrPlanNotFound means the requested plan does not exist or is inactive.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrOrderCreationFailed means the gateway returned no order id.
	ErrOrderCreationFailed = errors.New("payment order creation failed")

	// ErrOrderNotFound means no local order matches the gateway order id.
	ErrOrderNotFound = errors.New("payment order not found")

	// ErrStatusUpdateFailed means the order could not be marked paid even
	// though the gateway captured the payment. This needs manual
	// reconciliation, not a retry.
	ErrStatusUpdateFailed = errors.New("payment captured but status update failed, contact support")

	// ErrInvalidSignature means the capture callback's signature does not
	// match the order and payment ids.
	ErrInvalidSignature = errors.New("payment signature verification failed")

	// ErrPaymentNotCaptured means a signature-less callback named a payment
	// the gateway does not report as captured.
	ErrPaymentNotCaptured = errors.New("payment not captured at gateway")
)

const creditValidityDays = 365

// Service runs the plan purchase workflow: gateway order creation, capture
// handling and coin crediting.
type Service struct {
	db      *gorm.DB
	ledger  *ledger.Service
	queue   queue.Enqueuer
	gateway OrderGateway
}

// OrderGateway abstracts the payment gateway's order API.
type OrderGateway interface {
	CreateOrder(amount int64, currency, receipt string, notes map[string]string) (orderID string, err error)
	VerifySignature(orderID, paymentID, signature string) bool
	PaymentCaptured(paymentID string) (bool, error)
}

// NewService creates a new payment service.
func NewService(db *gorm.DB, ledgerSvc *ledger.Service, q queue.Enqueuer, gateway OrderGateway) *Service {
	return &Service{db: db, ledger: ledgerSvc, queue: q, gateway: gateway}
}

// ListPlans returns the active plan catalogue.
func (s *Service) ListPlans() ([]models.Plan, error) {
	var plans []models.Plan
	if err := s.db.Where("active = ?", true).Order("discounted_price").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("error finding plans: %w", err)
	}
	return plans, nil
}

// CreateOrder creates a gateway order at the plan's discounted price and
// records it locally with status "created".
func (s *Service) CreateOrder(firebaseUID string, planID uuid.UUID) (*models.PaymentOrder, error) {
	var plan models.Plan
	err := s.db.Where("id = ? AND active = ?", planID, true).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("error finding plan: %w", err)
	}

	receipt := utils.GenerateReference(slug.Make(plan.Name))
	amount := plan.DiscountedPrice * 100 // rupees to paise

	gatewayOrderID, err := s.gateway.CreateOrder(amount, "INR", receipt, map[string]string{
		"firebase_uid": firebaseUID,
		"plan":         plan.Name,
	})
	if err != nil {
		log.Printf("Gateway order creation failed for %s: %v", firebaseUID, err)
		return nil, ErrOrderCreationFailed
	}
	if gatewayOrderID == "" {
		return nil, ErrOrderCreationFailed
	}

	order := models.PaymentOrder{
		FirebaseUID:    firebaseUID,
		PlanName:       plan.Name,
		Coins:          plan.Coins,
		Amount:         amount,
		Currency:       "INR",
		Receipt:        receipt,
		GatewayOrderID: gatewayOrderID,
		Status:         models.PaymentStatusCreated,
	}
	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("error creating payment order: %w", err)
	}

	return &order, nil
}

// CaptureResult reports the post-capture ledger state.
type CaptureResult struct {
	OrderID  string `json:"order_id"`
	Credited int64  `json:"credited"`
	Balance  int64  `json:"balance"`
}

// CapturePayment handles the gateway success callback: verify the payment
// (signature when one is sent, a gateway lookup otherwise), mark the order
// paid and credit the plan's coins with a fresh 365-day window in the same
// transaction, then hand the audit entry and notification to the queue.
// Gateways redeliver callbacks, so a capture of an already-paid order
// returns the current balance without crediting again.
func (s *Service) CapturePayment(gatewayOrderID, gatewayPaymentID, gatewaySignature string) (*CaptureResult, error) {
	var order models.PaymentOrder
	err := s.db.Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("error finding payment order: %w", err)
	}

	if gatewaySignature != "" {
		if !s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, gatewaySignature) {
			return nil, ErrInvalidSignature
		}
	} else {
		captured, err := s.gateway.PaymentCaptured(gatewayPaymentID)
		if err != nil {
			return nil, fmt.Errorf("error fetching payment from gateway: %w", err)
		}
		if !captured {
			return nil, ErrPaymentNotCaptured
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Re-read under a row lock so concurrent callbacks for the same order
	// serialize here.
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("error locking payment order: %w", err)
	}

	if order.Status == models.PaymentStatusPaid {
		tx.Rollback()
		balance, err := s.ledger.EffectiveBalance(order.FirebaseUID, time.Now())
		if err != nil {
			return nil, err
		}
		return &CaptureResult{OrderID: gatewayOrderID, Credited: 0, Balance: balance}, nil
	}

	order.Status = models.PaymentStatusPaid
	order.GatewayPaymentID = gatewayPaymentID
	order.GatewaySignature = gatewaySignature
	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		log.Printf("Order %s captured at gateway but status update failed: %v", gatewayOrderID, err)
		return nil, ErrStatusUpdateFailed
	}

	record, err := s.ledger.CreditWithTx(tx, order.FirebaseUID, order.Coins, order.Receipt, creditValidityDays, false, true)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("error committing coin credit: %w", err)
	}

	candidateID := s.resolveCandidateID(order.FirebaseUID)
	if _, err := s.queue.EnqueueJob(queue.JobTypeAppendCoinHistory, queue.CoinHistoryJobPayload{
		FirebaseUID: order.FirebaseUID,
		CandidateID: candidateID,
		JobID:       gatewayPaymentID,
		CoinValue:   order.Coins,
		Reason:      fmt.Sprintf("Payment via %s", order.PlanName),
	}); err != nil {
		log.Printf("Failed to enqueue payment history for order %s: %v", gatewayOrderID, err)
	}

	var user models.User
	if err := s.db.Where("firebase_uid = ?", order.FirebaseUID).First(&user).Error; err == nil && user.PhoneNumber != "" {
		if _, err := s.queue.EnqueueJob(queue.JobTypeSendNotification, queue.NotificationJobPayload{
			Phone:    user.PhoneNumber,
			Channel:  "all",
			Template: "plan_purchased",
			Params: map[string]string{
				"name":  user.Name,
				"plan":  order.PlanName,
				"coins": fmt.Sprintf("%d", order.Coins),
			},
		}); err != nil {
			log.Printf("Failed to enqueue payment notification: %v", err)
		}
	}

	return &CaptureResult{
		OrderID:  gatewayOrderID,
		Credited: order.Coins,
		Balance:  record.CoinValue,
	}, nil
}

// resolveCandidateID looks up the id recorded in coin history: the
// organisation id for employer-type users, the user id otherwise. History is
// best-effort, so lookup failures degrade to an empty id.
func (s *Service) resolveCandidateID(firebaseUID string) string {
	var user models.User
	if err := s.db.Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return ""
	}

	if user.UserType == models.UserTypeEmployer {
		var org models.Organisation
		if err := s.db.Where("firebase_uid = ?", firebaseUID).First(&org).Error; err == nil {
			return org.ID.String()
		}
	}
	return user.ID.String()
}
