package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobsetu/backend/internal/services/coupon"
	"github.com/jobsetu/backend/internal/services/ledger"
)

// CouponHandler handles coupon listing and redemption requests
type CouponHandler struct {
	couponService *coupon.Service
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *coupon.Service) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// ListCoupons returns all coupon definitions
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.couponService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get coupons"})
		return
	}
	c.JSON(http.StatusOK, coupons)
}

// Redeem runs the coupon redemption workflow for the authenticated user
func (h *CouponHandler) Redeem(c *gin.Context) {
	firebaseUID := c.GetString("firebase_uid")
	if firebaseUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input struct {
		CouponCode string `json:"coupon_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coupon_code is required"})
		return
	}

	result, err := h.couponService.Redeem(firebaseUID, input.CouponCode)
	if err != nil {
		status, msg := couponErrorResponse(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, result)
}

// couponErrorResponse maps workflow rejections to HTTP statuses. Anything
// unexpected becomes a generic retry message so no internal detail leaks.
func couponErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusNotFound, "Invalid coupon code"
	case errors.Is(err, coupon.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, coupon.ErrWrongUserType):
		return http.StatusForbidden, "This coupon is not valid for your account type"
	case errors.Is(err, coupon.ErrAlreadyUsed):
		return http.StatusConflict, "You have already used this coupon"
	case errors.Is(err, coupon.ErrAlreadyHasCoupon):
		return http.StatusConflict, "An active coupon balance already exists"
	case errors.Is(err, coupon.ErrNotEligibleYet):
		return http.StatusBadRequest, "This coupon is not valid at this time"
	case errors.Is(err, ledger.ErrNegativeCoinValue):
		return http.StatusBadRequest, "coin value must not be negative"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}
