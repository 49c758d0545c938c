package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
)

// PaymentGateway списывает средства с грузоотправителя.
// Ошибка означает, что списания не было.
type PaymentGateway interface {
	Capture(ctx context.Context, bookingID uuid.UUID, method valueobject.PaymentMethod, reference string, amount valueobject.Money) error
}
