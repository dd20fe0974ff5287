package razorpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jobsetu/backend/internal/utils"
)

// RazorpayProvider is a thin client for the Razorpay Orders API.
type RazorpayProvider struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// RazorpayConfig holds configuration for the Razorpay provider.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// NewRazorpayProvider creates a new Razorpay provider.
func NewRazorpayProvider(config RazorpayConfig) *RazorpayProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}

	return &RazorpayProvider{
		keyID:     config.KeyID,
		keySecret: config.KeySecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrderRequest is the body for POST /v1/orders. Amount is in the
// smallest currency unit (paise for INR).
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrderResponse is Razorpay's order object.
type CreateOrderResponse struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

// CreateOrder creates a gateway order for the given amount.
func (p *RazorpayProvider) CreateOrder(req CreateOrderRequest) (*CreateOrderResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshaling order request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, p.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating order request: %w", err)
	}
	httpReq.SetBasicAuth(p.keyID, p.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error calling razorpay: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading razorpay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay order creation failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var order CreateOrderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("error decoding razorpay response: %w", err)
	}

	return &order, nil
}

// VerifyPaymentSignature checks the signature the checkout callback carries:
// HMAC-SHA256 over "<order_id>|<payment_id>" keyed with the API key secret.
func (p *RazorpayProvider) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return utils.VerifyHMAC(orderID+"|"+paymentID, signature, p.keySecret)
}

// FetchPaymentResponse is the subset of Razorpay's payment object this
// service reads during reconciliation.
type FetchPaymentResponse struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	OrderID  string `json:"order_id"`
	Method   string `json:"method"`
	Captured bool   `json:"captured"`
}

// FetchPayment fetches a payment by its gateway id.
func (p *RazorpayProvider) FetchPayment(paymentID string) (*FetchPaymentResponse, error) {
	httpReq, err := http.NewRequest(http.MethodGet, p.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating payment request: %w", err)
	}
	httpReq.SetBasicAuth(p.keyID, p.keySecret)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error calling razorpay: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading razorpay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay payment fetch failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var payment FetchPaymentResponse
	if err := json.Unmarshal(respBody, &payment); err != nil {
		return nil, fmt.Errorf("error decoding razorpay response: %w", err)
	}

	return &payment, nil
}
