package quote

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/event"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/metrics"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type SubmitQuoteInput struct {
	BookingID uuid.UUID
	Actor     valueobject.Actor
	Amount    int64
	Notes     string
}

type SubmitQuoteUseCase struct {
	transactor repository.Transactor
	publisher  event.Publisher
}

func NewSubmitQuoteUseCase(transactor repository.Transactor, publisher event.Publisher) *SubmitQuoteUseCase {
	return &SubmitQuoteUseCase{transactor: transactor, publisher: event.OrNop(publisher)}
}

// Execute сохраняет ставку перевозчика. Первая ставка переводит заявку в quoted.
func (uc *SubmitQuoteUseCase) Execute(ctx context.Context, input SubmitQuoteInput) (*entity.Quote, error) {
	if !input.Actor.Is(valueobject.RoleCarrier) {
		return nil, apperror.ErrUnauthorized
	}

	quote, err := entity.NewQuote(input.BookingID, input.Actor.ID, input.Amount, input.Notes)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = uc.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		booking, err = repos.Bookings().FindByIDForUpdate(ctx, input.BookingID)
		if err != nil {
			return err
		}
		if !booking.Status.IsOpenForQuotes() {
			return apperror.New(apperror.ErrCodeInvalidState, "заявка больше не принимает предложения")
		}
		if err := repos.Quotes().Create(ctx, quote); err != nil {
			return err
		}

		if booking.Status != valueobject.BookingStatusPendingQuote {
			return nil
		}
		if err := booking.Transition(valueobject.BookingStatusQuoted, valueobject.SystemActor); err != nil {
			return err
		}
		swapped, err := repos.Bookings().CompareAndSwap(ctx, booking, valueobject.BookingStatusPendingQuote)
		if err != nil {
			return err
		}
		if !swapped {
			return apperror.New(apperror.ErrCodeConflict, "статус заявки изменился параллельно, повторите попытку")
		}
		metrics.IncBookingTransition(string(valueobject.BookingStatusQuoted))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"quote_id":   quote.ID,
		"booking_id": booking.ID,
		"carrier_id": quote.CarrierID,
		"amount":     quote.Amount.String(),
	}).Info("quote: предложение получено")

	uc.publisher.Publish(booking.ShipperID, event.QuoteSubmitted, map[string]any{
		"booking_id": booking.ID,
		"quote_id":   quote.ID,
		"amount":     quote.Amount,
	})
	return quote, nil
}
