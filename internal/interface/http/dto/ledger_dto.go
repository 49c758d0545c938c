package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
)

type ProcessPaymentRequest struct {
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference" binding:"required"`
}

type PaymentResponse struct {
	ID            uuid.UUID `json:"id"`
	BookingID     uuid.UUID `json:"booking_id"`
	ShipperID     uuid.UUID `json:"shipper_id"`
	Method        string    `json:"method"`
	Reference     string    `json:"reference"`
	BookingAmount int64     `json:"booking_amount"`
	PlatformFee   int64     `json:"platform_fee"`
	Total         int64     `json:"total"`
	CapturedAt    time.Time `json:"captured_at"`
}

func ToPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		ShipperID:     p.ShipperID,
		Method:        string(p.Method),
		Reference:     p.Reference,
		BookingAmount: p.BookingAmount.Int64(),
		PlatformFee:   p.PlatformFee.Int64(),
		Total:         p.Total.Int64(),
		CapturedAt:    p.CapturedAt,
	}
}

func ToPaymentListResponse(payments []*entity.Payment) []PaymentResponse {
	result := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, ToPaymentResponse(p))
	}
	return result
}

type PaymentResultResponse struct {
	Payment        *PaymentResponse   `json:"payment,omitempty"`
	Settlement     SettlementResponse `json:"settlement"`
	AlreadySettled bool               `json:"already_settled"`
}

func ToPaymentResultResponse(r *ledger.PaymentResult) PaymentResultResponse {
	resp := PaymentResultResponse{
		Settlement:     ToSettlementResponse(r.Settlement),
		AlreadySettled: r.AlreadySettled,
	}
	if r.Payment != nil {
		p := ToPaymentResponse(r.Payment)
		resp.Payment = &p
	}
	return resp
}

type AwaitingPaymentResponse struct {
	Booking    BookingResponse    `json:"booking"`
	Settlement SettlementResponse `json:"settlement"`
}

func ToAwaitingPaymentsResponse(items []ledger.AwaitingPayment) []AwaitingPaymentResponse {
	result := make([]AwaitingPaymentResponse, 0, len(items))
	for _, item := range items {
		result = append(result, AwaitingPaymentResponse{
			Booking:    ToBookingResponse(item.Booking),
			Settlement: ToSettlementResponse(item.Settlement),
		})
	}
	return result
}

type PaymentHistoryResponse struct {
	Payments     []PaymentResponse     `json:"payments"`
	Transactions []TransactionResponse `json:"transactions"`
}

func ToPaymentHistoryResponse(h *ledger.PaymentHistory) PaymentHistoryResponse {
	return PaymentHistoryResponse{
		Payments:     ToPaymentListResponse(h.Payments),
		Transactions: ToTransactionListResponse(h.Transactions),
	}
}

type BalancesResponse struct {
	Available int64 `json:"available"`
	Pending   int64 `json:"pending"`
	Locked    int64 `json:"locked"`
	Total     int64 `json:"total"`
}

func ToBalancesResponse(b entity.Balances) BalancesResponse {
	return BalancesResponse{
		Available: b.Available.Int64(),
		Pending:   b.Pending.Int64(),
		Locked:    b.Locked.Int64(),
		Total:     b.Total().Int64(),
	}
}

type WalletResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	BalancesResponse
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToWalletResponse(w *entity.Wallet) WalletResponse {
	return WalletResponse{
		ID:               w.ID,
		OwnerID:          w.OwnerID,
		BalancesResponse: ToBalancesResponse(w.Balances),
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

type TransactionResponse struct {
	ID          uuid.UUID `json:"id"`
	WalletID    uuid.UUID `json:"wallet_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	ReferenceID uuid.UUID `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        string(t.Type),
		Amount:      t.Amount.Int64(),
		Status:      string(t.Status),
		ReferenceID: t.ReferenceID,
		CreatedAt:   t.CreatedAt,
	}
}

func ToTransactionListResponse(txs []*entity.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		result = append(result, ToTransactionResponse(t))
	}
	return result
}

type ReleaseResponse struct {
	Transaction     *TransactionResponse `json:"transaction,omitempty"`
	AlreadyReleased bool                 `json:"already_released"`
}

func ToReleaseResponse(r *ledger.ReleaseResult) ReleaseResponse {
	resp := ReleaseResponse{AlreadyReleased: r.AlreadyReleased}
	if r.Transaction != nil {
		t := ToTransactionResponse(r.Transaction)
		resp.Transaction = &t
	}
	return resp
}

type WalletDriftResponse struct {
	WalletID    uuid.UUID        `json:"wallet_id"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	Stored      BalancesResponse `json:"stored"`
	Replayed    BalancesResponse `json:"replayed"`
	ReplayError string           `json:"replay_error,omitempty"`
}

type ReconcileResponse struct {
	CheckedAt  time.Time             `json:"checked_at"`
	Wallets    int                   `json:"wallets"`
	Consistent bool                  `json:"consistent"`
	Drifts     []WalletDriftResponse `json:"drifts"`
}

func ToReconcileResponse(r *ledger.ReconcileReport) ReconcileResponse {
	resp := ReconcileResponse{
		CheckedAt:  r.CheckedAt,
		Wallets:    r.Wallets,
		Consistent: r.Consistent(),
		Drifts:     make([]WalletDriftResponse, 0, len(r.Drifts)),
	}
	for _, d := range r.Drifts {
		resp.Drifts = append(resp.Drifts, WalletDriftResponse{
			WalletID:    d.WalletID,
			OwnerID:     d.OwnerID,
			Stored:      ToBalancesResponse(d.Stored),
			Replayed:    ToBalancesResponse(d.Replayed),
			ReplayError: d.ReplayError,
		})
	}
	return resp
}
