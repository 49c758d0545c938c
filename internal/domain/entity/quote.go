package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

const maxQuoteNotesLength = 2000

// Quote: ставка перевозчика по заявке.
type Quote struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	CarrierID uuid.UUID
	Amount    valueobject.Money
	Notes     string
	Status    valueobject.QuoteStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewQuote(bookingID, carrierID uuid.UUID, amount int64, notes string) (*Quote, error) {
	if carrierID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указан перевозчик")
	}
	money, err := valueobject.NewPositiveMoney(amount)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма предложения должна быть положительной и не больше "+valueobject.MaxAmount.String())
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > maxQuoteNotesLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "комментарий к предложению слишком длинный")
	}

	now := time.Now().UTC()
	return &Quote{
		ID:        uuid.New(),
		BookingID: bookingID,
		CarrierID: carrierID,
		Amount:    money,
		Notes:     notes,
		Status:    valueobject.QuoteStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (q *Quote) Accept() error {
	if q.Status != valueobject.QuoteStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "можно принять только ожидающее предложение")
	}
	q.Status = valueobject.QuoteStatusAccepted
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Quote) Reject() error {
	if q.Status != valueobject.QuoteStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "можно отклонить только ожидающее предложение")
	}
	q.Status = valueobject.QuoteStatusRejected
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (q *Quote) IsOwnedBy(userID uuid.UUID) bool {
	return q.CarrierID == userID
}

func (q *Quote) IsPending() bool {
	return q.Status == valueobject.QuoteStatusPending
}
