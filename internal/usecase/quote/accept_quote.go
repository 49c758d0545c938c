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
	"github.com/ignatzorin/freight-backend/internal/pkg/keylock"
)

type AcceptQuoteResult struct {
	Booking  *entity.Booking
	Quote    *entity.Quote
	Rejected []*entity.Quote
}

type AcceptQuoteUseCase struct {
	quoteRepo   repository.QuoteRepository
	bookingRepo repository.BookingRepository
	transactor  repository.Transactor
	locker      keylock.Locker
	publisher   event.Publisher
}

func NewAcceptQuoteUseCase(quoteRepo repository.QuoteRepository, bookingRepo repository.BookingRepository, transactor repository.Transactor, locker keylock.Locker, publisher event.Publisher) *AcceptQuoteUseCase {
	return &AcceptQuoteUseCase{
		quoteRepo:   quoteRepo,
		bookingRepo: bookingRepo,
		transactor:  transactor,
		locker:      locker,
		publisher:   event.OrNop(publisher),
	}
}

// Execute выбирает перевозчика по заявке. Из параллельных принятий по одной заявке
// побеждает ровно одно, остальные получают CONFLICT или ALREADY_MATCHED. Повторов нет.
func (uc *AcceptQuoteUseCase) Execute(ctx context.Context, quoteID uuid.UUID, actor valueobject.Actor) (*AcceptQuoteResult, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrUnauthorized
	}

	quote, err := uc.quoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.locker.Lock(ctx, keylock.BookingKey(quote.BookingID))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось заблокировать заявку")
	}
	defer unlock()

	booking, err := uc.bookingRepo.FindByID(ctx, quote.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.IsOpenForQuotes() {
		metrics.IncQuoteAcceptance("already_matched")
		return nil, apperror.ErrAlreadyMatched
	}
	if err := booking.Match(quote.CarrierID, quote.Amount); err != nil {
		return nil, err
	}

	var rejected []*entity.Quote
	err = uc.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		swapped, err := repos.Bookings().CompareAndSwap(ctx, booking,
			valueobject.BookingStatusPendingQuote, valueobject.BookingStatusQuoted)
		if err != nil {
			return err
		}
		if !swapped {
			return apperror.ErrMatchConflict
		}

		if err := quote.Accept(); err != nil {
			return err
		}
		if err := repos.Quotes().Update(ctx, quote); err != nil {
			return err
		}

		pending := valueobject.QuoteStatusPending
		others, err := repos.Quotes().List(ctx, repository.QuoteFilter{BookingID: &booking.ID, Status: &pending})
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID == quote.ID {
				continue
			}
			if err := other.Reject(); err != nil {
				return err
			}
			if err := repos.Quotes().Update(ctx, other); err != nil {
				return err
			}
			rejected = append(rejected, other)
		}
		return nil
	})
	if err != nil {
		// Уникальный индекс на принятое предложение сработал раньше CAS.
		if apperror.IsDuplicate(err) {
			err = apperror.ErrMatchConflict
		}
		if apperror.IsConflict(err) {
			metrics.IncQuoteAcceptance("conflict")
		}
		return nil, err
	}

	metrics.IncQuoteAcceptance("accepted")
	metrics.IncBookingTransition(string(valueobject.BookingStatusBooked))
	logger.Log.WithFields(logrus.Fields{
		"quote_id":   quote.ID,
		"booking_id": booking.ID,
		"carrier_id": quote.CarrierID,
		"price":      quote.Amount.String(),
		"rejected":   len(rejected),
	}).Info("quote: перевозчик выбран")

	uc.publisher.Publish(quote.CarrierID, event.QuoteAccepted, map[string]any{
		"booking_id": booking.ID,
		"quote_id":   quote.ID,
	})
	for _, other := range rejected {
		uc.publisher.Publish(other.CarrierID, event.QuoteRejected, map[string]any{
			"booking_id": booking.ID,
			"quote_id":   other.ID,
		})
	}
	uc.publisher.Publish(booking.ShipperID, event.BookingStatusChanged, map[string]any{
		"booking_id": booking.ID,
		"status":     booking.Status,
	})

	return &AcceptQuoteResult{Booking: booking, Quote: quote, Rejected: rejected}, nil
}
