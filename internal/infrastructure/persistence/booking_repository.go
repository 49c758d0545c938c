package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/repository/common"
)

const bookingColumns = `id, shipper_id, cargo, pickup, delivery, status, carrier_id, agreed_price,
	paid, completed_at, status_changed_at, created_at, updated_at`

type bookingRow struct {
	ID              uuid.UUID     `db:"id"`
	ShipperID       uuid.UUID     `db:"shipper_id"`
	Cargo           []byte        `db:"cargo"`
	Pickup          []byte        `db:"pickup"`
	Delivery        []byte        `db:"delivery"`
	Status          string        `db:"status"`
	CarrierID       uuid.NullUUID `db:"carrier_id"`
	AgreedPrice     sql.NullInt64 `db:"agreed_price"`
	Paid            bool          `db:"paid"`
	CompletedAt     sql.NullTime  `db:"completed_at"`
	StatusChangedAt time.Time     `db:"status_changed_at"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

func (r *bookingRow) toEntity() *entity.Booking {
	b := &entity.Booking{
		ID:              r.ID,
		ShipperID:       r.ShipperID,
		Cargo:           json.RawMessage(r.Cargo),
		Pickup:          json.RawMessage(r.Pickup),
		Delivery:        json.RawMessage(r.Delivery),
		Status:          valueobject.BookingStatus(r.Status),
		Paid:            r.Paid,
		StatusChangedAt: r.StatusChangedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.CarrierID.Valid {
		id := r.CarrierID.UUID
		b.CarrierID = &id
	}
	if r.AgreedPrice.Valid {
		price := valueobject.Money(r.AgreedPrice.Int64)
		b.AgreedPrice = &price
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		b.CompletedAt = &t
	}
	return b
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullableMoney(m *valueobject.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Int64(), Valid: true}
}

type BookingRepository struct {
	q sqlx.ExtContext
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	// jsonb передаём строкой: []byte lib/pq кодирует как bytea.
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		b.ID, b.ShipperID, string(b.Cargo), string(b.Pickup), string(b.Delivery),
		string(b.Status), nullableUUID(b.CarrierID), nullableMoney(b.AgreedPrice),
		b.Paid, b.CompletedAt, b.StatusChangedAt, b.CreatedAt, b.UpdatedAt,
	)
	return common.DBError(err, "не удалось создать заявку")
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *BookingRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Booking, error) {
	row, err := common.GetOne[bookingRow](ctx, r.q, apperror.ErrBookingNotFound, query, id)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить заявку")
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) CompareAndSwap(ctx context.Context, b *entity.Booking, expected ...valueobject.BookingStatus) (bool, error) {
	statuses := make([]string, len(expected))
	for i, s := range expected {
		statuses[i] = string(s)
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE bookings
		SET status = $2, carrier_id = $3, agreed_price = $4, paid = $5, completed_at = $6,
		    status_changed_at = $7, updated_at = $8
		WHERE id = $1 AND status = ANY($9)
	`,
		b.ID, string(b.Status), nullableUUID(b.CarrierID), nullableMoney(b.AgreedPrice), b.Paid,
		b.CompletedAt, b.StatusChangedAt, b.UpdatedAt, pq.Array(statuses),
	)
	if err != nil {
		return false, common.DBError(err, "не удалось обновить статус заявки")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.DBError(err, "не удалось проверить результат обновления")
	}
	return n == 1, nil
}

func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*entity.Booking, error) {
	var w where
	if filter.ShipperID != nil {
		w.add("shipper_id = %s", *filter.ShipperID)
	}
	if filter.CarrierID != nil {
		w.add("carrier_id = %s", *filter.CarrierID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(%s)", pq.Array(statuses))
	}
	if filter.Paid != nil {
		w.add("paid = %s", *filter.Paid)
	}
	query, args := w.page(`SELECT `+bookingColumns+` FROM bookings`+w.String()+` ORDER BY created_at DESC, id`, filter.Limit, filter.Offset)

	bookings, err := common.SelectMapped(ctx, r.q, (*bookingRow).toEntity, query, args...)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить список заявок")
	}
	return bookings, nil
}
