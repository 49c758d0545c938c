package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// Payment: квитанция успешного списания с грузоотправителя. Одна на заявку.
type Payment struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	ShipperID     uuid.UUID
	Method        valueobject.PaymentMethod
	Reference     string
	BookingAmount valueobject.Money
	PlatformFee   valueobject.Money
	Total         valueobject.Money
	CapturedAt    time.Time
}

func NewPayment(booking *Booking, method valueobject.PaymentMethod, reference string, settlement valueobject.Settlement) (*Payment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указан идентификатор платежа")
	}
	return &Payment{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		ShipperID:     booking.ShipperID,
		Method:        method,
		Reference:     reference,
		BookingAmount: settlement.BookingAmount,
		PlatformFee:   settlement.PlatformFee,
		Total:         settlement.Total,
		CapturedAt:    time.Now().UTC(),
	}, nil
}

func (p *Payment) Settlement() valueobject.Settlement {
	return valueobject.Settlement{
		BookingAmount: p.BookingAmount,
		PlatformFee:   p.PlatformFee,
		Total:         p.Total,
	}
}
