package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jobsetu/backend/internal/config"
	"github.com/jobsetu/backend/internal/handlers"
	"github.com/jobsetu/backend/internal/middleware"
	"github.com/jobsetu/backend/internal/queue"
	"github.com/jobsetu/backend/internal/services/coupon"
	"github.com/jobsetu/backend/internal/services/ledger"
	"github.com/jobsetu/backend/internal/services/payment"
	"github.com/jobsetu/backend/internal/services/referral"
)

// Services bundles the wired service layer that route registration needs.
type Services struct {
	Ledger   *ledger.Service
	Coupon   *coupon.Service
	Referral *referral.Service
	Payment  *payment.Service
	Queue    queue.Enqueuer
}

// SetupRouter builds the gin engine with middleware and every API route
func SetupRouter(db *gorm.DB, cfg *config.Config, svcs Services) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(10, 20)
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	couponHandler := handlers.NewCouponHandler(svcs.Coupon)
	walletHandler := handlers.NewWalletHandler(db, svcs.Ledger)
	referralHandler := handlers.NewReferralHandler(svcs.Referral)
	paymentHandler := handlers.NewPaymentHandler(svcs.Payment)
	userHandler := handlers.NewUserHandler(db, svcs.Ledger, cfg.Referral.DefaultRewardCoins)
	notifyHandler := handlers.NewNotifyHandler(svcs.Queue)

	router.GET("/health", userHandler.Health)

	// Public reads used before the client has a session
	public := router.Group("/api")
	{
		public.GET("/coupons", couponHandler.ListCoupons)
		public.GET("/login", userHandler.Lookup)
		public.GET("/plans", paymentHandler.ListPlans)
		public.GET("/referConfigure", userHandler.ReferConfigure)
	}

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/redeemGeneral", walletHandler.GetRedeemGeneral)
		api.POST("/redeemGeneral", walletHandler.UpsertRedeemGeneral)
		api.PUT("/redeemGeneral", walletHandler.UpsertRedeemGeneral)
		api.POST("/redeemUnique", walletHandler.CreateRedeemUnique)
		api.POST("/redeemSame", walletHandler.CreateRedeemSame)

		api.GET("/coin_history", walletHandler.GetCoinHistory)
		api.POST("/coin_history", walletHandler.CreateCoinHistory)
		api.POST("/coins/spend", walletHandler.SpendCoins)

		api.POST("/coupons/redeem", couponHandler.Redeem)

		api.GET("/referring", referralHandler.GetReferring)
		api.POST("/referring", referralHandler.SaveReferring)

		api.POST("/razorpay/order", paymentHandler.CreateOrder)
		api.PUT("/razorpay/order", paymentHandler.CapturePayment)

		api.POST("/rcsMessage", notifyHandler.SendRCS)
		api.POST("/whatsapp", notifyHandler.SendWhatsApp)
	}

	return router
}
