package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freight-backend/internal/interface/http/dto"
	"github.com/ignatzorin/freight-backend/internal/interface/http/response"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
)

// LedgerHandler: оплата заявок, кошельки и сверка журнала.
type LedgerHandler struct {
	payUC          *ledger.ProcessPaymentUseCase
	releaseUC      *ledger.ReleaseEscrowUseCase
	awaitingUC     *ledger.ListAwaitingPaymentsUseCase
	historyUC      *ledger.ListPaymentHistoryUseCase
	walletUC       *ledger.GetWalletUseCase
	transactionsUC *ledger.ListTransactionsUseCase
	reconcileUC    *ledger.ReconcileUseCase
}

func NewLedgerHandler(
	payUC *ledger.ProcessPaymentUseCase,
	releaseUC *ledger.ReleaseEscrowUseCase,
	awaitingUC *ledger.ListAwaitingPaymentsUseCase,
	historyUC *ledger.ListPaymentHistoryUseCase,
	walletUC *ledger.GetWalletUseCase,
	transactionsUC *ledger.ListTransactionsUseCase,
	reconcileUC *ledger.ReconcileUseCase,
) *LedgerHandler {
	return &LedgerHandler{
		payUC:          payUC,
		releaseUC:      releaseUC,
		awaitingUC:     awaitingUC,
		historyUC:      historyUC,
		walletUC:       walletUC,
		transactionsUC: transactionsUC,
		reconcileUC:    reconcileUC,
	}
}

// Pay обрабатывает POST /api/bookings/:id/payment.
func (h *LedgerHandler) Pay(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	var req dto.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите способ оплаты и идентификатор платежа")
		return
	}

	result, err := h.payUC.Execute(c.Request.Context(), ledger.ProcessPaymentInput{
		BookingID: bookingID,
		Method:    req.Method,
		Reference: req.Reference,
		Actor:     actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.AlreadySettled {
		response.Success(c, dto.ToPaymentResultResponse(result))
		return
	}
	response.Created(c, dto.ToPaymentResultResponse(result))
}

// Release обрабатывает POST /api/admin/bookings/:id/release.
func (h *LedgerHandler) Release(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	result, err := h.releaseUC.Execute(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReleaseResponse(result))
}

// AwaitingPayments обрабатывает GET /api/payments/awaiting.
func (h *LedgerHandler) AwaitingPayments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	items, err := h.awaitingUC.Execute(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAwaitingPaymentsResponse(items))
}

// PaymentHistory обрабатывает GET /api/payments/history.
func (h *LedgerHandler) PaymentHistory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	history, err := h.historyUC.Execute(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentHistoryResponse(history))
}

// MyWallet обрабатывает GET /api/wallet.
func (h *LedgerHandler) MyWallet(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	wallet, err := h.walletUC.Execute(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWalletResponse(wallet))
}

// OwnerWallet обрабатывает GET /api/admin/wallets/:ownerId.
func (h *LedgerHandler) OwnerWallet(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	ownerID, ok := pathUUID(c, "ownerId", "некорректный ID владельца")
	if !ok {
		return
	}

	wallet, err := h.walletUC.Execute(c.Request.Context(), actor, ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWalletResponse(wallet))
}

// MyTransactions обрабатывает GET /api/wallet/transactions.
func (h *LedgerHandler) MyTransactions(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	txs, err := h.transactionsUC.Execute(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToTransactionListResponse(txs), len(txs), limit, offset)
}

// Reconcile обрабатывает GET /api/admin/ledger/reconcile.
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	report, err := h.reconcileUC.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReconcileResponse(report))
}
