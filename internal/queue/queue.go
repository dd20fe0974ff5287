package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of a background job
type JobType string

const (
	JobTypeAppendCoinHistory JobType = "append_coin_history"
	JobTypeSendNotification  JobType = "send_notification"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job. Coin history appends and message
// dispatches run through here so a failure never reaches the workflow
// that enqueued them.
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Error      string          `json:"error,omitempty"`
}

// JobHandler processes a single job.
type JobHandler func(ctx context.Context, job Job) error

// Enqueuer is the narrow interface services use to hand off side effects.
type Enqueuer interface {
	EnqueueJob(jobType JobType, payload interface{}) (string, error)
}

// Queue is a database-backed job queue with per-type handlers and
// exponential-backoff retries.
type Queue struct {
	db           *gorm.DB
	handlers     map[JobType]JobHandler
	retryHandler *RetryHandler
	processing   atomic.Bool
}

// NewQueue creates a new queue.
func NewQueue(db *gorm.DB) *Queue {
	q := &Queue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
	}
	q.retryHandler = NewRetryHandler(db, q)
	return q
}

// RegisterHandler registers a handler for a job type.
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue and returns its id.
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:        uuid.New(),
		Type:      jobType,
		Payload:   payloadBytes,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := q.db.Create(&job).Error; err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job.ID.String(), nil
}

// GetJob retrieves a job by id.
func (q *Queue) GetJob(jobID string) (*Job, error) {
	var job Job
	err := q.db.Where("id = ?", jobID).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// StartProcessing starts the polling worker. Jobs whose retry time has not
// arrived yet are skipped until it has.
func (q *Queue) StartProcessing() {
	if !q.processing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		for q.processing.Load() {
			var job Job
			err := q.db.
				Where("status = ? AND (next_retry IS NULL OR next_retry <= ?)", JobStatusPending, time.Now()).
				Order("created_at").
				First(&job).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					log.Printf("Error getting job from queue: %v", err)
				}
				time.Sleep(1 * time.Second)
				continue
			}

			q.processJob(job)
		}
	}()
}

// StopProcessing stops the polling worker after the current job.
func (q *Queue) StopProcessing() {
	q.processing.Store(false)
}

func (q *Queue) processJob(job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("No handler registered for job type: %s", job.Type)
		q.markJob(job.ID, JobStatusFailed, "no handler registered")
		return
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to update job status: %v", err)
		return
	}

	err := handler(context.Background(), job)
	if err != nil {
		q.retryHandler.HandleFailedJob(job, err)
		return
	}

	q.markJob(job.ID, JobStatusCompleted, "")
}

func (q *Queue) markJob(jobID uuid.UUID, status JobStatus, errMsg string) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	if err := q.db.Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error; err != nil {
		log.Printf("Failed to mark job %s as %s: %v", jobID, status, err)
	}
}
