package payment

import (
	"github.com/jobsetu/backend/internal/services/payment/providers/razorpay"
)

// razorpayGateway adapts the Razorpay provider to the OrderGateway interface.
type razorpayGateway struct {
	provider *razorpay.RazorpayProvider
}

// NewRazorpayGateway wraps a Razorpay provider as an OrderGateway.
func NewRazorpayGateway(provider *razorpay.RazorpayProvider) OrderGateway {
	return &razorpayGateway{provider: provider}
}

func (g *razorpayGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]string) (string, error) {
	order, err := g.provider.CreateOrder(razorpay.CreateOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.provider.VerifyPaymentSignature(orderID, paymentID, signature)
}

func (g *razorpayGateway) PaymentCaptured(paymentID string) (bool, error) {
	payment, err := g.provider.FetchPayment(paymentID)
	if err != nil {
		return false, err
	}
	return payment.Captured, nil
}
