package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/freight-backend/internal/config"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/http/middleware"
	"github.com/ignatzorin/freight-backend/internal/interface/http/handler"
	"github.com/ignatzorin/freight-backend/internal/service"
)

// Handlers: все HTTP обработчики сервиса.
type Handlers struct {
	Booking     *handler.BookingHandler
	Quote       *handler.QuoteHandler
	Ledger      *handler.LedgerHandler
	Withdrawal  *handler.WithdrawalHandler
	BankAccount *handler.BankAccountHandler
	Health      *handler.HealthHandler
	WS          *handler.WSHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokenManager *service.TokenManager,
	rateLimitStore limiter.Store,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.WS != nil {
		r.GET("/ws", h.WS.Handle)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokenManager))

	// Денежные операции ограничиваются по пользователю.
	moneyLimit := middleware.RateLimitMiddleware(rateLimitStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)

	bookings := api.Group("/bookings")
	{
		bookings.POST("", h.Booking.Create)
		bookings.GET("", h.Booking.List)
		bookings.GET("/open", h.Booking.ListOpen)
		bookings.GET("/:id", middleware.UUIDValidator("id"), h.Booking.Get)
		bookings.PUT("/:id/status", middleware.UUIDValidator("id"), h.Booking.UpdateStatus)
		bookings.GET("/:id/settlement", middleware.UUIDValidator("id"), h.Booking.Settlement)
		bookings.POST("/:id/quotes", middleware.UUIDValidator("id"), h.Quote.Submit)
		bookings.POST("/:id/payment", middleware.UUIDValidator("id"), moneyLimit, h.Ledger.Pay)
	}

	api.GET("/quotes", h.Quote.List)

	payments := api.Group("/payments")
	{
		payments.GET("/awaiting", h.Ledger.AwaitingPayments)
		payments.GET("/history", h.Ledger.PaymentHistory)
	}

	wallet := api.Group("/wallet")
	{
		wallet.GET("", h.Ledger.MyWallet)
		wallet.GET("/transactions", h.Ledger.MyTransactions)
	}

	withdrawals := api.Group("/withdrawals")
	{
		withdrawals.POST("", moneyLimit, h.Withdrawal.Request)
		withdrawals.GET("", h.Withdrawal.ListMine)
	}

	bankAccounts := api.Group("/bank-accounts")
	{
		bankAccounts.POST("", moneyLimit, h.BankAccount.Add)
		bankAccounts.GET("", h.BankAccount.List)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRoles(valueobject.RoleAdmin))
	{
		admin.POST("/quotes/:id/accept", middleware.UUIDValidator("id"), h.Quote.Accept)
		admin.POST("/bookings/:id/release", middleware.UUIDValidator("id"), moneyLimit, h.Ledger.Release)
		admin.GET("/wallets/:ownerId", middleware.UUIDValidator("ownerId"), h.Ledger.OwnerWallet)
		admin.GET("/withdrawals", h.Withdrawal.AdminList)
		admin.POST("/withdrawals/:id/approve", middleware.UUIDValidator("id"), moneyLimit, h.Withdrawal.Approve)
		admin.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), moneyLimit, h.Withdrawal.Reject)
		admin.GET("/ledger/reconcile", h.Ledger.Reconcile)
	}

	return r
}
