package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type quoteRepo struct{ *repos }

func (r *quoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	defer r.lock()()
	if _, ok := r.st.bookings.get(quote.BookingID); !ok {
		return apperror.ErrBookingNotFound
	}
	r.st.quotes.put(quote.ID, *quote)
	return nil
}

func (r *quoteRepo) Update(ctx context.Context, quote *entity.Quote) error {
	defer r.lock()()
	if _, ok := r.st.quotes.get(quote.ID); !ok {
		return apperror.ErrQuoteNotFound
	}
	// Аналог частичного уникального индекса: одно принятое предложение на заявку.
	if quote.Status == valueobject.QuoteStatusAccepted {
		for _, other := range r.st.quotes.all() {
			if other.ID != quote.ID && other.BookingID == quote.BookingID && other.Status == valueobject.QuoteStatusAccepted {
				return apperror.ErrDuplicateOperation
			}
		}
	}
	r.st.quotes.put(quote.ID, *quote)
	return nil
}

func (r *quoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	defer r.lock()()
	row, ok := r.st.quotes.get(id)
	if !ok {
		return nil, apperror.ErrQuoteNotFound
	}
	return &row, nil
}

func (r *quoteRepo) List(ctx context.Context, filter repository.QuoteFilter) ([]*entity.Quote, error) {
	defer r.lock()()
	var out []*entity.Quote
	for _, row := range reversed(r.st.quotes.all()) {
		if filter.BookingID != nil && row.BookingID != *filter.BookingID {
			continue
		}
		if filter.CarrierID != nil && row.CarrierID != *filter.CarrierID {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		if filter.ShipperID != nil {
			booking, ok := r.st.bookings.get(row.BookingID)
			if !ok || booking.ShipperID != *filter.ShipperID {
				continue
			}
		}
		q := row
		out = append(out, &q)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *quoteRepo) CountByBooking(ctx context.Context, bookingID uuid.UUID) (int, error) {
	defer r.lock()()
	count := 0
	for _, row := range r.st.quotes.all() {
		if row.BookingID == bookingID {
			count++
		}
	}
	return count, nil
}
