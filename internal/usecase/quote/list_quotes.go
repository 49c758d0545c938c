package quote

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type ListQuotesInput struct {
	Actor     valueobject.Actor
	BookingID *uuid.UUID
	CarrierID *uuid.UUID
	Status    string
	Limit     int
	Offset    int
}

type ListQuotesUseCase struct {
	quoteRepo repository.QuoteRepository
}

func NewListQuotesUseCase(quoteRepo repository.QuoteRepository) *ListQuotesUseCase {
	return &ListQuotesUseCase{quoteRepo: quoteRepo}
}

// Execute: перевозчик видит только свои ставки, грузоотправитель видит ставки по своим заявкам.
func (uc *ListQuotesUseCase) Execute(ctx context.Context, input ListQuotesInput) ([]*entity.Quote, error) {
	filter := repository.QuoteFilter{
		BookingID: input.BookingID,
		CarrierID: input.CarrierID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	}
	if input.Status != "" {
		status, err := valueobject.NewQuoteStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	switch input.Actor.Role {
	case valueobject.RoleAdmin:
	case valueobject.RoleCarrier:
		filter.CarrierID = &input.Actor.ID
	case valueobject.RoleShipper:
		filter.ShipperID = &input.Actor.ID
	default:
		return nil, apperror.ErrForbidden
	}

	return uc.quoteRepo.List(ctx, filter)
}
