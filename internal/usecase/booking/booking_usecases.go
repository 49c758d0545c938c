package booking

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type CreateBookingInput struct {
	Actor     valueobject.Actor
	ShipperID uuid.UUID
	Cargo     json.RawMessage
	Pickup    json.RawMessage
	Delivery  json.RawMessage
}

type CreateBookingUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewCreateBookingUseCase(bookingRepo repository.BookingRepository) *CreateBookingUseCase {
	return &CreateBookingUseCase{bookingRepo: bookingRepo}
}

func (uc *CreateBookingUseCase) Execute(ctx context.Context, input CreateBookingInput) (*entity.Booking, error) {
	shipperID := input.Actor.ID
	switch {
	case input.Actor.Is(valueobject.RoleShipper):
	case input.Actor.IsAdmin():
		// Администратор создаёт заявку от имени грузоотправителя.
		if input.ShipperID != uuid.Nil {
			shipperID = input.ShipperID
		}
	default:
		return nil, apperror.ErrUnauthorized
	}

	booking, err := entity.NewBooking(shipperID, input.Cargo, input.Pickup, input.Delivery)
	if err != nil {
		return nil, err
	}
	if err := uc.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"shipper_id": booking.ShipperID,
	}).Info("booking: заявка создана")
	return booking, nil
}

type GetBookingUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewGetBookingUseCase(bookingRepo repository.BookingRepository) *GetBookingUseCase {
	return &GetBookingUseCase{bookingRepo: bookingRepo}
}

func (uc *GetBookingUseCase) Execute(ctx context.Context, bookingID uuid.UUID, actor valueobject.Actor) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.VisibleTo(actor) {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

type ListBookingsUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewListBookingsUseCase(bookingRepo repository.BookingRepository) *ListBookingsUseCase {
	return &ListBookingsUseCase{bookingRepo: bookingRepo}
}

// Execute возвращает заявки, которые видит актор. Грузоотправитель видит свои,
// перевозчик назначенные ему, водитель оплаченные и находящиеся в пути, администратор все.
func (uc *ListBookingsUseCase) Execute(ctx context.Context, actor valueobject.Actor, limit, offset int) ([]*entity.Booking, error) {
	filter := repository.BookingFilter{Limit: limit, Offset: offset}
	switch actor.Role {
	case valueobject.RoleAdmin:
	case valueobject.RoleShipper:
		filter.ShipperID = &actor.ID
	case valueobject.RoleCarrier:
		filter.CarrierID = &actor.ID
	case valueobject.RoleDriver:
		filter.Statuses = []valueobject.BookingStatus{
			valueobject.BookingStatusPaid,
			valueobject.BookingStatusInTransit,
			valueobject.BookingStatusDelivered,
		}
	default:
		return []*entity.Booking{}, nil
	}
	return uc.bookingRepo.List(ctx, filter)
}

type ListOpenBookingsUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewListOpenBookingsUseCase(bookingRepo repository.BookingRepository) *ListOpenBookingsUseCase {
	return &ListOpenBookingsUseCase{bookingRepo: bookingRepo}
}

// Execute возвращает заявки, на которые ещё принимаются предложения.
func (uc *ListOpenBookingsUseCase) Execute(ctx context.Context, limit, offset int) ([]*entity.Booking, error) {
	return uc.bookingRepo.List(ctx, repository.BookingFilter{
		Statuses: []valueobject.BookingStatus{
			valueobject.BookingStatusPendingQuote,
			valueobject.BookingStatusQuoted,
		},
		Limit:  limit,
		Offset: offset,
	})
}
