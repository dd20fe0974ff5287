package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/referral"
)

// sweepInterval matches the refresh cadence the frontend used to poll at.
const sweepInterval = 60 * time.Second

// ReferralSweepJob periodically re-checks every open referral set against
// the login directory, so newly registered numbers count toward the reward
// without the user touching their set.
type ReferralSweepJob struct {
	referral  *referral.Service
	lock      *queue.SweepLock
	scheduler *gocron.Scheduler
}

// NewReferralSweepJob creates the sweep job. The lock may be nil when no
// Redis is configured, in which case sweeps rely on the database constraints
// alone.
func NewReferralSweepJob(referralSvc *referral.Service, lock *queue.SweepLock) *ReferralSweepJob {
	return &ReferralSweepJob{
		referral:  referralSvc,
		lock:      lock,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the sweep and begins running it asynchronously.
func (j *ReferralSweepJob) Start() error {
	if _, err := j.scheduler.Every(sweepInterval).Do(j.Run); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler.
func (j *ReferralSweepJob) Stop() {
	j.scheduler.Stop()
}

// Run executes one sweep, guarded by the distributed lock when available.
func (j *ReferralSweepJob) Run() {
	ctx := context.Background()

	if j.lock != nil {
		acquired, err := j.lock.TryAcquire(ctx)
		if err != nil {
			log.Printf("Referral sweep lock error: %v", err)
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := j.lock.Release(ctx); err != nil {
				log.Printf("Referral sweep lock release error: %v", err)
			}
		}()
	}

	if err := j.referral.Sweep(); err != nil {
		log.Printf("Referral sweep failed: %v", err)
	}
}
