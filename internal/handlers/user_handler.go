package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/services/ledger"
	"gorm.io/gorm"
)

// UserHandler exposes the login directory lookup and referral config
type UserHandler struct {
	db            *gorm.DB
	ledgerService *ledger.Service
	defaultReward int64
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB, ledgerService *ledger.Service, defaultReward int64) *UserHandler {
	return &UserHandler{db: db, ledgerService: ledgerService, defaultReward: defaultReward}
}

// Lookup returns directory rows for a firebase uid. Clients use the first
// element, so the shape stays an array.
func (h *UserHandler) Lookup(c *gin.Context) {
	uid := c.Query("firebase_uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid is required"})
		return
	}

	var users []models.User
	if err := h.db.Where("firebase_uid = ?", uid).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// ReferConfigure returns the configured referral reward value as a
// one-element array
func (h *UserHandler) ReferConfigure(c *gin.Context) {
	value := h.ledgerService.ReferCouponValue(h.defaultReward)
	c.JSON(http.StatusOK, []gin.H{{"coupon_value": value}})
}

// Health reports process liveness and database reachability
func (h *UserHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
