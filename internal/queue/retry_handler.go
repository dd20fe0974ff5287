package queue

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RetryConfig defines how failed jobs are retried.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// RetryHandler schedules retries for failed jobs with exponential backoff.
// Both job types here are best-effort side effects, so exhausting retries
// only logs; nothing upstream is notified.
type RetryHandler struct {
	db        *gorm.DB
	queue     *Queue
	retryConf RetryConfig
}

// NewRetryHandler creates a retry handler with the default policy.
func NewRetryHandler(db *gorm.DB, queue *Queue) *RetryHandler {
	conf := RetryConfig{
		MaxRetries:      5,
		InitialInterval: 30 * time.Second,
		MaxInterval:     1 * time.Hour,
		Multiplier:      2.0,
	}

	return &RetryHandler{
		db:        db,
		queue:     queue,
		retryConf: conf,
	}
}

// HandleFailedJob schedules a retry for the job, or marks it failed once
// retries are exhausted.
func (h *RetryHandler) HandleFailedJob(job Job, err error) {
	retryCount := job.RetryCount + 1

	if retryCount > h.retryConf.MaxRetries {
		log.Printf("Job exceeded maximum retry attempts (%d). Job ID: %s, Error: %v",
			h.retryConf.MaxRetries, job.ID, err)
		h.markFailed(job.ID, fmt.Sprintf("exceeded max retries: %v", err))
		return
	}

	nextRetryDelay := h.calculateBackoff(retryCount)
	nextRetryTime := time.Now().Add(nextRetryDelay)

	log.Printf("Scheduling retry %d/%d for job %s in %v. Error: %v",
		retryCount, h.retryConf.MaxRetries, job.ID, nextRetryDelay, err)

	updates := map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": retryCount,
		"next_retry":  nextRetryTime,
		"error":       err.Error(),
		"updated_at":  time.Now(),
	}
	if dbErr := h.db.Model(&Job{}).Where("id = ?", job.ID).Updates(updates).Error; dbErr != nil {
		log.Printf("Failed to schedule retry for job %s: %v", job.ID, dbErr)
	}
}

func (h *RetryHandler) markFailed(jobID uuid.UUID, errMsg string) {
	updates := map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      errMsg,
		"updated_at": time.Now(),
	}
	if err := h.db.Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error; err != nil {
		log.Printf("Failed to mark job %s as failed: %v", jobID, err)
	}
}

// calculateBackoff returns the delay before the given retry, with jitter so
// parallel workers do not stampede.
func (h *RetryHandler) calculateBackoff(retry int) time.Duration {
	base := h.retryConf.InitialInterval.Seconds()
	max := h.retryConf.MaxInterval.Seconds()

	seconds := math.Min(max, base*math.Pow(h.retryConf.Multiplier, float64(retry-1)))

	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds) * time.Second
}
