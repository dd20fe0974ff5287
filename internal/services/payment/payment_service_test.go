package payment

import (
	"errors"
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
	jobs     []queue.JobType
	payloads []interface{}
}

func (f *fakeQueue) EnqueueJob(jobType queue.JobType, payload interface{}) (string, error) {
	f.jobs = append(f.jobs, jobType)
	f.payloads = append(f.payloads, payload)
	return uuid.New().String(), nil
}

type fakeGateway struct {
	lastAmount   int64
	lastReceipt  string
	orderID      string
	err          error
	badSignature bool
	notCaptured  bool
	fetchErr     error
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return !g.badSignature
}

func (g *fakeGateway) PaymentCaptured(paymentID string) (bool, error) {
	return !g.notCaptured, g.fetchErr
}

func (g *fakeGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]string) (string, error) {
	g.lastAmount = amount
	g.lastReceipt = receipt
	if g.err != nil {
		return "", g.err
	}
	return g.orderID, nil
}

func setupService(t *testing.T, gw OrderGateway) (*Service, *gorm.DB, *fakeQueue) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organisation{},
		&models.Plan{},
		&models.PaymentOrder{},
		&models.RedemptionRecord{},
		&models.CoinHistoryEntry{},
		&models.ReferConfig{},
	))

	q := &fakeQueue{}
	return NewService(db, ledger.NewService(db), q, gw), db, q
}

func seedPlan(t *testing.T, db *gorm.DB, name string, coins, discounted int64) *models.Plan {
	plan := &models.Plan{
		Name:            name,
		Tier:            "standard",
		Coins:           coins,
		Price:           discounted + 100,
		DiscountedPrice: discounted,
		Active:          true,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func TestListPlans(t *testing.T) {
	svc, db, _ := setupService(t, &fakeGateway{orderID: "order_1"})
	seedPlan(t, db, "Standard Plan", 8000, 199)
	seedPlan(t, db, "Premium Plan", 20000, 499)

	inactive := seedPlan(t, db, "Retired Plan", 100, 9)
	require.NoError(t, db.Model(inactive).Update("active", false).Error)

	plans, err := svc.ListPlans()
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Standard Plan", plans[0].Name, "ordered by price")
}

func TestCreateOrder(t *testing.T) {
	gw := &fakeGateway{orderID: "order_abc"}
	svc, db, _ := setupService(t, gw)
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	order, err := svc.CreateOrder("uid-1", plan.ID)
	require.NoError(t, err)

	assert.Equal(t, "order_abc", order.GatewayOrderID)
	assert.Equal(t, models.PaymentStatusCreated, order.Status)
	assert.Equal(t, int64(19900), order.Amount, "rupees converted to paise")
	assert.Equal(t, int64(19900), gw.lastAmount)
	assert.Contains(t, gw.lastReceipt, "standard-plan")
	assert.Equal(t, int64(8000), order.Coins)
}

func TestCreateOrderPlanNotFound(t *testing.T) {
	svc, _, _ := setupService(t, &fakeGateway{orderID: "order_abc"})

	_, err := svc.CreateOrder("uid-1", uuid.New())
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	svc, db, _ := setupService(t, &fakeGateway{err: errors.New("gateway down")})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	_, err := svc.CreateOrder("uid-1", plan.ID)
	assert.ErrorIs(t, err, ErrOrderCreationFailed)

	var count int64
	require.NoError(t, db.Model(&models.PaymentOrder{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "no local order without a gateway order")
}

func TestCreateOrderGatewayEmptyOrderID(t *testing.T) {
	svc, db, _ := setupService(t, &fakeGateway{orderID: ""})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	_, err := svc.CreateOrder("uid-1", plan.ID)
	assert.ErrorIs(t, err, ErrOrderCreationFailed)
}

func TestCapturePayment(t *testing.T) {
	svc, db, q := setupService(t, &fakeGateway{orderID: "order_abc"})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	require.NoError(t, db.Create(&models.User{
		FirebaseUID: "uid-1",
		UserType:    models.UserTypeCandidate,
		Name:        "Asha",
		PhoneNumber: "9876543210",
	}).Error)

	// an existing live balance of 200 coins
	now := time.Now()
	require.NoError(t, db.Create(&models.RedemptionRecord{
		FirebaseUID: "uid-1",
		CoinValue:   200,
		ValidFrom:   now.AddDate(0, 0, -1),
		ValidTo:     now.AddDate(0, 0, 20),
		RedeemAt:    now,
		RedeemValid: now.AddDate(0, 1, 0),
	}).Error)

	order, err := svc.CreateOrder("uid-1", plan.ID)
	require.NoError(t, err)

	result, err := svc.CapturePayment(order.GatewayOrderID, "pay_123", "sig")
	require.NoError(t, err)
	assert.Equal(t, int64(8000), result.Credited)
	assert.Equal(t, int64(8200), result.Balance)

	var stored models.PaymentOrder
	require.NoError(t, db.Where("gateway_order_id = ?", order.GatewayOrderID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusPaid, stored.Status)
	assert.Equal(t, "pay_123", stored.GatewayPaymentID)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(8200), record.CoinValue)
	assert.Equal(t, 1, record.IsRazorPay)
	assert.WithinDuration(t, now.AddDate(0, 0, 365), record.ValidTo, time.Minute,
		"purchase refreshes the validity window")

	require.Contains(t, q.jobs, queue.JobTypeAppendCoinHistory)
	var historyPayload *queue.CoinHistoryJobPayload
	for i, jt := range q.jobs {
		if jt == queue.JobTypeAppendCoinHistory {
			p := q.payloads[i].(queue.CoinHistoryJobPayload)
			historyPayload = &p
		}
	}
	require.NotNil(t, historyPayload)
	assert.Equal(t, fmt.Sprintf("Payment via %s", "Standard Plan"), historyPayload.Reason)
	assert.Equal(t, "pay_123", historyPayload.JobID)
}

func TestCapturePaymentReplayCreditsOnce(t *testing.T) {
	svc, db, q := setupService(t, &fakeGateway{orderID: "order_abc"})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	order, err := svc.CreateOrder("uid-1", plan.ID)
	require.NoError(t, err)

	first, err := svc.CapturePayment(order.GatewayOrderID, "pay_123", "sig")
	require.NoError(t, err)
	assert.Equal(t, int64(8000), first.Credited)
	assert.Equal(t, int64(8000), first.Balance)

	// a redelivered callback for the same order
	second, err := svc.CapturePayment(order.GatewayOrderID, "pay_123", "sig")
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Credited)
	assert.Equal(t, int64(8000), second.Balance)

	var record models.RedemptionRecord
	require.NoError(t, db.Where("firebase_uid = ?", "uid-1").First(&record).Error)
	assert.Equal(t, int64(8000), record.CoinValue, "balance unchanged by the replay")

	var historyJobs int
	for _, jt := range q.jobs {
		if jt == queue.JobTypeAppendCoinHistory {
			historyJobs++
		}
	}
	assert.Equal(t, 1, historyJobs, "one history entry for one payment")
}

func TestCapturePaymentWithoutSignatureChecksGateway(t *testing.T) {
	svc, db, _ := setupService(t, &fakeGateway{orderID: "order_abc", notCaptured: true})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	order, err := svc.CreateOrder("uid-1", plan.ID)
	require.NoError(t, err)

	_, err = svc.CapturePayment(order.GatewayOrderID, "pay_123", "")
	assert.ErrorIs(t, err, ErrPaymentNotCaptured)

	var stored models.PaymentOrder
	require.NoError(t, db.Where("gateway_order_id = ?", order.GatewayOrderID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusCreated, stored.Status)
}

func TestCapturePaymentWithoutSignatureCapturedAtGateway(t *testing.T) {
	svc, db, _ := setupService(t, &fakeGateway{orderID: "order_abc"})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	order, err := svc.CreateOrder("uid-1", plan.ID)
	require.NoError(t, err)

	result, err := svc.CapturePayment(order.GatewayOrderID, "pay_123", "")
	require.NoError(t, err)
	assert.Equal(t, int64(8000), result.Credited)
}

func TestCapturePaymentRejectsBadSignature(t *testing.T) {
	svc, db, _ := setupService(t, &fakeGateway{orderID: "order_abc", badSignature: true})
	plan := seedPlan(t, db, "Standard Plan", 8000, 199)

	order, err := svc.CreateOrder("uid-1", plan.ID)
	require.NoError(t, err)

	_, err = svc.CapturePayment(order.GatewayOrderID, "pay_123", "forged")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	var stored models.PaymentOrder
	require.NoError(t, db.Where("gateway_order_id = ?", order.GatewayOrderID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusCreated, stored.Status)
}

func TestCapturePaymentOrderNotFound(t *testing.T) {
	svc, _, _ := setupService(t, &fakeGateway{orderID: "order_abc"})

	_, err := svc.CapturePayment("order_missing", "pay_1", "sig")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCapturePaymentEmployerUsesOrganisationID(t *testing.T) {
	svc, db, q := setupService(t, &fakeGateway{orderID: "order_abc"})
	plan := seedPlan(t, db, "Employer Plan", 5000, 999)

	require.NoError(t, db.Create(&models.User{
		FirebaseUID: "emp-1",
		UserType:    models.UserTypeEmployer,
		Name:        "Acme HR",
	}).Error)
	org := models.Organisation{FirebaseUID: "emp-1", Name: "Acme"}
	require.NoError(t, db.Create(&org).Error)

	order, err := svc.CreateOrder("emp-1", plan.ID)
	require.NoError(t, err)

	_, err = svc.CapturePayment(order.GatewayOrderID, "pay_456", "sig")
	require.NoError(t, err)

	var found bool
	for i, jt := range q.jobs {
		if jt != queue.JobTypeAppendCoinHistory {
			continue
		}
		p := q.payloads[i].(queue.CoinHistoryJobPayload)
		assert.Equal(t, org.ID.String(), p.CandidateID)
		found = true
	}
	assert.True(t, found)
}
