package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobsetu/backend/internal/services/referral"
)

// ReferralHandler exposes the referral contact set endpoints
type ReferralHandler struct {
	referralService *referral.Service
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralService *referral.Service) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// referralSetInput carries the ten contact slots the app submits. Empty
// slots are allowed and ignored.
type referralSetInput struct {
	Contact1  string `json:"contact1"`
	Contact2  string `json:"contact2"`
	Contact3  string `json:"contact3"`
	Contact4  string `json:"contact4"`
	Contact5  string `json:"contact5"`
	Contact6  string `json:"contact6"`
	Contact7  string `json:"contact7"`
	Contact8  string `json:"contact8"`
	Contact9  string `json:"contact9"`
	Contact10 string `json:"contact10"`
}

func (in *referralSetInput) contacts() []string {
	return []string{
		in.Contact1, in.Contact2, in.Contact3, in.Contact4, in.Contact5,
		in.Contact6, in.Contact7, in.Contact8, in.Contact9, in.Contact10,
	}
}

// GetReferring returns the user's referral set with per-contact
// registration status
func (h *ReferralHandler) GetReferring(c *gin.Context) {
	uid := requestUID(c)
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid is required"})
		return
	}

	view, err := h.referralService.GetSet(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral set"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// SaveReferring replaces the user's referral set. Numbers that already
// belong to registered accounts are rejected before anything is written.
func (h *ReferralHandler) SaveReferring(c *gin.Context) {
	firebaseUID := c.GetString("firebase_uid")
	if firebaseUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input referralSetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.referralService.SaveSet(firebaseUID, input.contacts())
	if err != nil {
		switch {
		case errors.Is(err, referral.ErrInvalidContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": "contact number must be a valid 10 digit mobile number"})
		case errors.Is(err, referral.ErrDuplicateContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate contact number in referral set"})
		case errors.Is(err, referral.ErrContactRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "contact number already registered"})
		case errors.Is(err, referral.ErrTooManyContacts):
			c.JSON(http.StatusBadRequest, gin.H{"error": "too many contact numbers"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save referral set"})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}
