package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type bookingRepo struct{ *repos }

func (r *bookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	defer r.lock()()
	if _, ok := r.st.bookings.get(booking.ID); ok {
		return apperror.ErrDuplicateOperation
	}
	r.st.bookings.put(booking.ID, *booking)
	return nil
}

func (r *bookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	defer r.lock()()
	row, ok := r.st.bookings.get(id)
	if !ok {
		return nil, apperror.ErrBookingNotFound
	}
	return &row, nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) CompareAndSwap(ctx context.Context, booking *entity.Booking, expected ...valueobject.BookingStatus) (bool, error) {
	defer r.lock()()
	current, ok := r.st.bookings.get(booking.ID)
	if !ok {
		return false, apperror.ErrBookingNotFound
	}
	if !slices.Contains(expected, current.Status) {
		return false, nil
	}
	r.st.bookings.put(booking.ID, *booking)
	return true, nil
}

func (r *bookingRepo) List(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	defer r.lock()()
	var out []*entity.Booking
	for _, row := range reversed(r.st.bookings.all()) {
		if !matchBooking(row, filter) {
			continue
		}
		b := row
		out = append(out, &b)
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func matchBooking(b entity.Booking, f repository.BookingFilter) bool {
	if f.ShipperID != nil && b.ShipperID != *f.ShipperID {
		return false
	}
	if f.CarrierID != nil && !b.IsCarriedBy(*f.CarrierID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if f.Paid != nil && b.Paid != *f.Paid {
		return false
	}
	return true
}
