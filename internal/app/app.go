// Package app собирает use cases и HTTP обработчики поверх выбранного хранилища.
package app

import (
	"github.com/ignatzorin/freight-backend/internal/domain/event"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/http/router"
	"github.com/ignatzorin/freight-backend/internal/interface/http/handler"
	"github.com/ignatzorin/freight-backend/internal/pkg/keylock"
	"github.com/ignatzorin/freight-backend/internal/service"
	"github.com/ignatzorin/freight-backend/internal/usecase/bankaccount"
	"github.com/ignatzorin/freight-backend/internal/usecase/booking"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
	"github.com/ignatzorin/freight-backend/internal/usecase/quote"
	"github.com/ignatzorin/freight-backend/internal/usecase/withdrawal"
	"github.com/ignatzorin/freight-backend/internal/ws"
)

type Deps struct {
	Store   repository.Store
	Locker  keylock.Locker
	Gateway repository.PaymentGateway
	Sealer  bankaccount.Sealer
	Tokens  *service.TokenManager
	// Hub может быть nil: тогда события никуда не отправляются и /ws не регистрируется.
	Hub            *ws.Hub
	AllowedOrigins []string
	HealthChecks   map[string]handler.HealthCheck
}

type App struct {
	Handlers  router.Handlers
	Reconcile *ledger.ReconcileUseCase
}

func New(d Deps) *App {
	var publisher event.Publisher = event.Nop{}
	if d.Hub != nil {
		publisher = d.Hub
	}
	store := d.Store

	// Ledger
	payUC := ledger.NewProcessPaymentUseCase(store, d.Locker, d.Gateway, publisher)
	releaseUC := ledger.NewReleaseEscrowUseCase(store, d.Locker, publisher)
	reconcileUC := ledger.NewReconcileUseCase(store)
	ledgerHandler := handler.NewLedgerHandler(
		payUC,
		releaseUC,
		ledger.NewListAwaitingPaymentsUseCase(store.Bookings()),
		ledger.NewListPaymentHistoryUseCase(store.Payments(), store.Wallets(), store.Transactions()),
		ledger.NewGetWalletUseCase(store.Wallets()),
		ledger.NewListTransactionsUseCase(store.Wallets(), store.Transactions()),
		reconcileUC,
	)

	// Bookings
	bookingHandler := handler.NewBookingHandler(
		booking.NewCreateBookingUseCase(store.Bookings()),
		booking.NewGetBookingUseCase(store.Bookings()),
		booking.NewListBookingsUseCase(store.Bookings()),
		booking.NewListOpenBookingsUseCase(store.Bookings()),
		booking.NewTransitionBookingUseCase(store.Bookings(), d.Locker, releaseUC, publisher),
		ledger.NewGetSettlementUseCase(store.Bookings()),
	)

	// Quotes
	quoteHandler := handler.NewQuoteHandler(
		quote.NewSubmitQuoteUseCase(store, publisher),
		quote.NewAcceptQuoteUseCase(store.Quotes(), store.Bookings(), store, d.Locker, publisher),
		quote.NewListQuotesUseCase(store.Quotes()),
	)

	// Withdrawals
	withdrawalHandler := handler.NewWithdrawalHandler(
		withdrawal.NewRequestWithdrawalUseCase(store, d.Locker),
		withdrawal.NewResolveWithdrawalUseCase(store, d.Locker, publisher),
		withdrawal.NewListWithdrawalsUseCase(store.Wallets(), store.Withdrawals()),
	)
	bankAccountHandler := handler.NewBankAccountHandler(
		bankaccount.NewAddBankAccountUseCase(store, d.Sealer),
		bankaccount.NewListBankAccountsUseCase(store.BankAccounts(), d.Sealer),
	)

	h := router.Handlers{
		Booking:     bookingHandler,
		Quote:       quoteHandler,
		Ledger:      ledgerHandler,
		Withdrawal:  withdrawalHandler,
		BankAccount: bankAccountHandler,
		Health:      handler.NewHealthHandler(d.HealthChecks),
	}
	if d.Hub != nil {
		h.WS = handler.NewWSHandler(d.Hub, d.Tokens, d.AllowedOrigins)
	}

	return &App{Handlers: h, Reconcile: reconcileUC}
}
