package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
)

type RequestWithdrawalRequest struct {
	Amount        int64      `json:"amount" binding:"required,gt=0,lte=1000000000000"`
	BankAccountID uuid.UUID  `json:"bank_account_id" binding:"required"`
	WalletID      *uuid.UUID `json:"wallet_id"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type WithdrawalResponse struct {
	ID            uuid.UUID  `json:"id"`
	WalletID      uuid.UUID  `json:"wallet_id"`
	BankAccountID uuid.UUID  `json:"bank_account_id"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	Reason        *string    `json:"reason"`
	RequestedAt   time.Time  `json:"requested_at"`
	ProcessedAt   *time.Time `json:"processed_at"`
	ProcessedBy   *uuid.UUID `json:"processed_by"`
}

func ToWithdrawalResponse(w *entity.WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		ID:            w.ID,
		WalletID:      w.WalletID,
		BankAccountID: w.BankAccountID,
		Amount:        w.Amount.Int64(),
		Status:        string(w.Status),
		Reason:        w.Reason,
		RequestedAt:   w.RequestedAt,
		ProcessedAt:   w.ProcessedAt,
		ProcessedBy:   w.ProcessedBy,
	}
}

func ToWithdrawalListResponse(items []*entity.WithdrawalRequest) []WithdrawalResponse {
	result := make([]WithdrawalResponse, 0, len(items))
	for _, w := range items {
		result = append(result, ToWithdrawalResponse(w))
	}
	return result
}

type AddBankAccountRequest struct {
	HolderName    string `json:"holder_name" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	RoutingNumber string `json:"routing_number" binding:"required"`
	IsPrimary     bool   `json:"is_primary"`
}

// BankAccountResponse никогда не содержит полный номер счёта.
type BankAccountResponse struct {
	ID            uuid.UUID `json:"id"`
	HolderName    string    `json:"holder_name"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	RoutingNumber string    `json:"routing_number"`
	IsPrimary     bool      `json:"is_primary"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToBankAccountResponse(a *entity.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:            a.ID,
		HolderName:    a.HolderName,
		BankName:      a.BankName,
		AccountNumber: a.MaskedNumber(),
		RoutingNumber: a.RoutingNumber,
		IsPrimary:     a.IsPrimary,
		CreatedAt:     a.CreatedAt,
	}
}

func ToBankAccountListResponse(items []*entity.BankAccount) []BankAccountResponse {
	result := make([]BankAccountResponse, 0, len(items))
	for _, a := range items {
		result = append(result, ToBankAccountResponse(a))
	}
	return result
}
