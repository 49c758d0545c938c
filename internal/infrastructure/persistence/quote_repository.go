package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/repository/common"
)

const quoteColumns = `q.id, q.booking_id, q.carrier_id, q.amount, q.notes, q.status, q.created_at, q.updated_at`

type quoteRow struct {
	ID        uuid.UUID `db:"id"`
	BookingID uuid.UUID `db:"booking_id"`
	CarrierID uuid.UUID `db:"carrier_id"`
	Amount    int64     `db:"amount"`
	Notes     string    `db:"notes"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *quoteRow) toEntity() *entity.Quote {
	return &entity.Quote{
		ID:        r.ID,
		BookingID: r.BookingID,
		CarrierID: r.CarrierID,
		Amount:    valueobject.Money(r.Amount),
		Notes:     r.Notes,
		Status:    valueobject.QuoteStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type QuoteRepository struct {
	q sqlx.ExtContext
}

func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{q: db}
}

func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO quotes (id, booking_id, carrier_id, amount, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		quote.ID, quote.BookingID, quote.CarrierID, quote.Amount.Int64(), quote.Notes,
		string(quote.Status), quote.CreatedAt, quote.UpdatedAt,
	)
	return common.DBError(err, "не удалось сохранить предложение")
}

func (r *QuoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE quotes SET status = $2, updated_at = $3 WHERE id = $1
	`, quote.ID, string(quote.Status), quote.UpdatedAt)
	if err != nil {
		return common.DBError(err, "не удалось обновить предложение")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrQuoteNotFound
	}
	return nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error) {
	row, err := common.GetOne[quoteRow](ctx, r.q, apperror.ErrQuoteNotFound,
		`SELECT `+quoteColumns+` FROM quotes q WHERE q.id = $1`, id)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить предложение")
	}
	return row.toEntity(), nil
}

func (r *QuoteRepository) List(ctx context.Context, filter repository.QuoteFilter) ([]*entity.Quote, error) {
	var w where
	from := ` FROM quotes q`
	if filter.ShipperID != nil {
		from += ` JOIN bookings b ON b.id = q.booking_id`
		w.add("b.shipper_id = %s", *filter.ShipperID)
	}
	if filter.BookingID != nil {
		w.add("q.booking_id = %s", *filter.BookingID)
	}
	if filter.CarrierID != nil {
		w.add("q.carrier_id = %s", *filter.CarrierID)
	}
	if filter.Status != nil {
		w.add("q.status = %s", string(*filter.Status))
	}
	query, args := w.page(`SELECT `+quoteColumns+from+w.String()+` ORDER BY q.created_at, q.id`, filter.Limit, filter.Offset)

	quotes, err := common.SelectMapped(ctx, r.q, (*quoteRow).toEntity, query, args...)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить список предложений")
	}
	return quotes, nil
}

func (r *QuoteRepository) CountByBooking(ctx context.Context, bookingID uuid.UUID) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM quotes WHERE booking_id = $1`, bookingID); err != nil {
		return 0, common.DBError(err, "не удалось посчитать предложения")
	}
	return count, nil
}
