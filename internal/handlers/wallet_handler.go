package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/services/ledger"
	"gorm.io/gorm"
)

// WalletHandler exposes the general ledger: redemption records, the
// feature-specific audit inserts and the coin history log. Response shapes
// match what the frontend already consumes (arrays, [0] = current record).
type WalletHandler struct {
	db            *gorm.DB
	ledgerService *ledger.Service
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(db *gorm.DB, ledgerService *ledger.Service) *WalletHandler {
	return &WalletHandler{db: db, ledgerService: ledgerService}
}

func requestUID(c *gin.Context) string {
	if uid := c.Query("firebase_uid"); uid != "" {
		return uid
	}
	return c.GetString("firebase_uid")
}

// GetRedeemGeneral returns the user's current general record as a
// one-element array, or an empty array when none exists
func (h *WalletHandler) GetRedeemGeneral(c *gin.Context) {
	uid := requestUID(c)
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid is required"})
		return
	}

	record, err := h.ledgerService.GetRecord(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get redemption record"})
		return
	}

	if record == nil {
		c.JSON(http.StatusOK, []models.RedemptionRecord{})
		return
	}
	c.JSON(http.StatusOK, []models.RedemptionRecord{*record})
}

// UpsertRedeemGeneral creates or updates the general record in place.
// The authenticated uid always wins over whatever the body carries, so a
// caller can only write their own record. Negative coin values are rejected
// with a message the frontend matches on.
func (h *WalletHandler) UpsertRedeemGeneral(c *gin.Context) {
	var record models.RedemptionRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if uid := c.GetString("firebase_uid"); uid != "" {
		record.FirebaseUID = uid
	}
	if record.FirebaseUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid is required"})
		return
	}

	if err := h.ledgerService.UpsertRecord(&record); err != nil {
		if errors.Is(err, ledger.ErrNegativeCoinValue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "coin value must not be negative"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save redemption record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// CreateRedeemUnique inserts a unique-redemption audit row
func (h *WalletHandler) CreateRedeemUnique(c *gin.Context) {
	var row models.UniqueRedemption
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Create(&row).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "redemption already recorded"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

// CreateRedeemSame inserts a same-redemption audit row
func (h *WalletHandler) CreateRedeemSame(c *gin.Context) {
	var row models.SameRedemption
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Create(&row).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "redemption already recorded"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

// CreateCoinHistory appends one audit log row
func (h *WalletHandler) CreateCoinHistory(c *gin.Context) {
	var entry models.CoinHistoryEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if entry.FirebaseUID == "" {
		entry.FirebaseUID = c.GetString("firebase_uid")
	}
	if entry.FirebaseUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid is required"})
		return
	}

	if err := h.ledgerService.AppendHistory(&entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to append coin history"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GetCoinHistory returns the user's audit log, newest first
func (h *WalletHandler) GetCoinHistory(c *gin.Context) {
	uid := requestUID(c)
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid is required"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	entries, total, err := h.ledgerService.History(uid, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get coin history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"page":    page,
	})
}

// SpendCoins debits coins for a job application or candidate unlock
func (h *WalletHandler) SpendCoins(c *gin.Context) {
	firebaseUID := c.GetString("firebase_uid")
	if firebaseUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input struct {
		Amount      int64  `json:"amount" binding:"required"`
		JobID       string `json:"job_id"`
		CandidateID string `json:"candidate_id"`
		Reason      string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.ledgerService.Debit(firebaseUID, input.Amount, input.CandidateID, input.JobID, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNegativeCoinValue):
			c.JSON(http.StatusBadRequest, gin.H{"error": "coin value must not be negative"})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient coin balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to spend coins"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": record.CoinValue})
}
