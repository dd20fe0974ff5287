package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jobsetu/backend/internal/models"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/ledger"
)

// CoinHistoryJob appends audit rows enqueued by the workflow services.
type CoinHistoryJob struct {
	ledger *ledger.Service
}

// NewCoinHistoryJob creates a new coin history job handler.
func NewCoinHistoryJob(ledgerSvc *ledger.Service) *CoinHistoryJob {
	return &CoinHistoryJob{ledger: ledgerSvc}
}

// RegisterCoinHistoryJobHandler registers the handler with the queue.
func RegisterCoinHistoryJobHandler(q *queue.Queue, ledgerSvc *ledger.Service) {
	handler := NewCoinHistoryJob(ledgerSvc)
	q.RegisterHandler(queue.JobTypeAppendCoinHistory, handler.Run)
}

// Run appends one coin history entry.
func (j *CoinHistoryJob) Run(ctx context.Context, job queue.Job) error {
	var payload queue.CoinHistoryJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal coin history payload: %w", err)
	}

	entry := models.CoinHistoryEntry{
		FirebaseUID: payload.FirebaseUID,
		CandidateID: payload.CandidateID,
		JobID:       payload.JobID,
		CoinValue:   payload.CoinValue,
		Reduction:   payload.Reduction,
		Reason:      payload.Reason,
	}
	if err := j.ledger.AppendHistory(&entry); err != nil {
		return err
	}

	log.Printf("Coin history appended for %s: %s", payload.FirebaseUID, payload.Reason)
	return nil
}
