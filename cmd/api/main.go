package main

import (
	"fmt"
	"log"
	"time"

	"github.com/jobsetu/backend/internal/config"
	"github.com/jobsetu/backend/internal/database"
	"github.com/jobsetu/backend/internal/database/migrations"
	"github.com/jobsetu/backend/internal/jobs"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/routes"
	"github.com/jobsetu/backend/internal/services/coupon"
	"github.com/jobsetu/backend/internal/services/ledger"
	"github.com/jobsetu/backend/internal/services/notify"
	"github.com/jobsetu/backend/internal/services/payment"
	"github.com/jobsetu/backend/internal/services/payment/providers/razorpay"
	"github.com/jobsetu/backend/internal/services/referral"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Job queue for coin history appends and outbound notifications
	jobQueue := queue.NewQueue(db)

	ledgerService := ledger.NewService(db)
	couponService := coupon.NewService(db, ledgerService, jobQueue)
	referralService := referral.NewService(db, ledgerService, jobQueue)

	gateway := payment.NewRazorpayGateway(razorpay.NewRazorpayProvider(razorpay.RazorpayConfig{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
	}))
	paymentService := payment.NewService(db, ledgerService, jobQueue, gateway)

	notifyService := notify.NewService(
		notify.NewRCSDispatcher(notify.RCSConfig{
			Endpoint: cfg.Messaging.RCSEndpoint,
			APIKey:   cfg.Messaging.RCSAPIKey,
		}),
		notify.NewWhatsAppDispatcher(notify.WhatsAppConfig{
			Endpoint: cfg.Messaging.WhatsAppEndpoint,
			Token:    cfg.Messaging.WhatsAppToken,
		}),
	)

	jobs.RegisterAllJobHandlers(jobQueue, ledgerService, notifyService)
	jobQueue.StartProcessing()

	// The sweep lock keeps multiple instances from racing on referral
	// rewards. Without Redis the sweep still runs, unguarded.
	var sweepLock *queue.SweepLock
	redisClient, err := queue.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Warning: Redis unavailable, referral sweep runs without a lock: %v", err)
	} else {
		sweepLock = queue.NewSweepLock(redisClient, "referral:sweep", 55*time.Second)
	}

	sweepJob := jobs.NewReferralSweepJob(referralService, sweepLock)
	if err := sweepJob.Start(); err != nil {
		log.Fatalf("Failed to start referral sweep job: %v", err)
	}

	router := routes.SetupRouter(db, cfg, routes.Services{
		Ledger:   ledgerService,
		Coupon:   couponService,
		Referral: referralService,
		Payment:  paymentService,
		Queue:    jobQueue,
	})

	fmt.Printf("JobSetu API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
