package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jobsetu/backend/internal/services/payment"
)

// PaymentHandler exposes the plan catalogue and the Razorpay order flow
type PaymentHandler struct {
	paymentService *payment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ListPlans returns the active subscription plans
func (h *PaymentHandler) ListPlans(c *gin.Context) {
	plans, err := h.paymentService.ListPlans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreateOrder creates a gateway order for the selected plan
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	firebaseUID := c.GetString("firebase_uid")
	if firebaseUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input struct {
		PlanID string `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	planID, err := uuid.Parse(input.PlanID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan_id"})
		return
	}

	order, err := h.paymentService.CreateOrder(firebaseUID, planID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		case errors.Is(err, payment.ErrOrderCreationFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create payment order"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment order"})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// CapturePayment records a successful gateway payment and credits the
// plan's coins
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	var input struct {
		RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
		RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.paymentService.CapturePayment(input.RazorpayOrderID, input.RazorpayPaymentID, input.RazorpaySignature)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment order not found"})
		case errors.Is(err, payment.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment signature verification failed"})
		case errors.Is(err, payment.ErrPaymentNotCaptured):
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment not captured at gateway"})
		case errors.Is(err, payment.ErrStatusUpdateFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payment status"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to capture payment"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
