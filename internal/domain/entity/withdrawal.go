package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// WithdrawalRequest: заявка владельца кошелька на вывод средств на банковский счёт.
type WithdrawalRequest struct {
	ID            uuid.UUID
	WalletID      uuid.UUID
	BankAccountID uuid.UUID
	Amount        valueobject.Money
	Status        valueobject.WithdrawalStatus
	Reason        *string
	RequestedAt   time.Time
	ProcessedAt   *time.Time
	ProcessedBy   *uuid.UUID
}

func NewWithdrawalRequest(walletID, bankAccountID uuid.UUID, amount int64) (*WithdrawalRequest, error) {
	money, err := valueobject.NewPositiveMoney(amount)
	if err != nil {
		return nil, err
	}
	return &WithdrawalRequest{
		ID:            uuid.New(),
		WalletID:      walletID,
		BankAccountID: bankAccountID,
		Amount:        money,
		Status:        valueobject.WithdrawalStatusPending,
		RequestedAt:   time.Now().UTC(),
	}, nil
}

func (w *WithdrawalRequest) Complete(adminID uuid.UUID) error {
	if w.Status != valueobject.WithdrawalStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "заявка на вывод уже обработана")
	}
	w.resolve(valueobject.WithdrawalStatusCompleted, adminID)
	return nil
}

func (w *WithdrawalRequest) Reject(adminID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.New(apperror.ErrCodeValidation, "укажите причину отказа")
	}
	if w.Status != valueobject.WithdrawalStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "заявка на вывод уже обработана")
	}
	w.Reason = &reason
	w.resolve(valueobject.WithdrawalStatusRejected, adminID)
	return nil
}

func (w *WithdrawalRequest) resolve(status valueobject.WithdrawalStatus, adminID uuid.UUID) {
	now := time.Now().UTC()
	w.Status = status
	w.ProcessedAt = &now
	w.ProcessedBy = &adminID
}
