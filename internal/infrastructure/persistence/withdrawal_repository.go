package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/repository/common"
)

const withdrawalColumns = `id, wallet_id, bank_account_id, amount, status, reason, requested_at, processed_at, processed_by`

type withdrawalRow struct {
	ID            uuid.UUID      `db:"id"`
	WalletID      uuid.UUID      `db:"wallet_id"`
	BankAccountID uuid.UUID      `db:"bank_account_id"`
	Amount        int64          `db:"amount"`
	Status        string         `db:"status"`
	Reason        sql.NullString `db:"reason"`
	RequestedAt   time.Time      `db:"requested_at"`
	ProcessedAt   sql.NullTime   `db:"processed_at"`
	ProcessedBy   uuid.NullUUID  `db:"processed_by"`
}

func (r *withdrawalRow) toEntity() *entity.WithdrawalRequest {
	w := &entity.WithdrawalRequest{
		ID:            r.ID,
		WalletID:      r.WalletID,
		BankAccountID: r.BankAccountID,
		Amount:        valueobject.Money(r.Amount),
		Status:        valueobject.WithdrawalStatus(r.Status),
		RequestedAt:   r.RequestedAt,
	}
	if r.Reason.Valid {
		reason := r.Reason.String
		w.Reason = &reason
	}
	if r.ProcessedAt.Valid {
		t := r.ProcessedAt.Time
		w.ProcessedAt = &t
	}
	if r.ProcessedBy.Valid {
		id := r.ProcessedBy.UUID
		w.ProcessedBy = &id
	}
	return w
}

type WithdrawalRepository struct {
	q sqlx.ExtContext
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *entity.WithdrawalRequest) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (`+withdrawalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		w.ID, w.WalletID, w.BankAccountID, w.Amount.Int64(), string(w.Status),
		w.Reason, w.RequestedAt, w.ProcessedAt, nullableUUID(w.ProcessedBy),
	)
	return common.DBError(err, "не удалось создать заявку на вывод")
}

func (r *WithdrawalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.WithdrawalRequest, error) {
	return r.findOne(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id)
}

func (r *WithdrawalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WithdrawalRequest, error) {
	return r.findOne(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *WithdrawalRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.WithdrawalRequest, error) {
	row, err := common.GetOne[withdrawalRow](ctx, r.q, apperror.ErrWithdrawalNotFound, query, id)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить заявку на вывод")
	}
	return row.toEntity(), nil
}

func (r *WithdrawalRepository) Resolve(ctx context.Context, w *entity.WithdrawalRequest) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, reason = $3, processed_at = $4, processed_by = $5
		WHERE id = $1 AND status = 'pending'
	`, w.ID, string(w.Status), w.Reason, w.ProcessedAt, nullableUUID(w.ProcessedBy))
	if err != nil {
		return false, common.DBError(err, "не удалось сохранить решение по выводу")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.DBError(err, "не удалось проверить результат обновления")
	}
	return n == 1, nil
}

func (r *WithdrawalRepository) List(ctx context.Context, filter repository.WithdrawalFilter) ([]*entity.WithdrawalRequest, error) {
	var w where
	if filter.WalletID != nil {
		w.add("wallet_id = %s", *filter.WalletID)
	}
	if filter.Status != nil {
		w.add("status = %s", string(*filter.Status))
	}
	query, args := w.page(`SELECT `+withdrawalColumns+` FROM withdrawal_requests`+w.String()+` ORDER BY requested_at DESC, id`, filter.Limit, filter.Offset)
	list, err := common.SelectMapped(ctx, r.q, (*withdrawalRow).toEntity, query, args...)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить заявки на вывод")
	}
	return list, nil
}

const bankAccountColumns = `id, owner_id, holder_name, bank_name, account_number, routing_number, is_primary, created_at`

type bankAccountRow struct {
	ID            uuid.UUID `db:"id"`
	OwnerID       uuid.UUID `db:"owner_id"`
	HolderName    string    `db:"holder_name"`
	BankName      string    `db:"bank_name"`
	AccountNumber string    `db:"account_number"`
	RoutingNumber string    `db:"routing_number"`
	IsPrimary     bool      `db:"is_primary"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *bankAccountRow) toEntity() *entity.BankAccount {
	return &entity.BankAccount{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		HolderName:    r.HolderName,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		RoutingNumber: r.RoutingNumber,
		IsPrimary:     r.IsPrimary,
		CreatedAt:     r.CreatedAt,
	}
}

// BankAccountRepository хранит номер счёта в том виде, в каком его передали (уже зашифрованным).
type BankAccountRepository struct {
	q sqlx.ExtContext
}

func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{q: db}
}

func (r *BankAccountRepository) Create(ctx context.Context, a *entity.BankAccount) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bank_accounts (`+bankAccountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.OwnerID, a.HolderName, a.BankName, a.AccountNumber, a.RoutingNumber, a.IsPrimary, a.CreatedAt)
	return common.DBError(err, "не удалось сохранить банковский счёт")
}

func (r *BankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.BankAccount, error) {
	row, err := common.GetOne[bankAccountRow](ctx, r.q, apperror.ErrBankAccountNotFound,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE id = $1`, id)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить банковский счёт")
	}
	return row.toEntity(), nil
}

func (r *BankAccountRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.BankAccount, error) {
	list, err := common.SelectMapped(ctx, r.q, (*bankAccountRow).toEntity,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить банковские счета")
	}
	return list, nil
}

func (r *BankAccountRepository) ClearPrimary(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `UPDATE bank_accounts SET is_primary = FALSE WHERE owner_id = $1 AND is_primary`, ownerID)
	return common.DBError(err, "не удалось сбросить основной счёт")
}

const paymentColumns = `id, booking_id, shipper_id, method, reference, booking_amount, platform_fee, total, captured_at`

type paymentRow struct {
	ID            uuid.UUID `db:"id"`
	BookingID     uuid.UUID `db:"booking_id"`
	ShipperID     uuid.UUID `db:"shipper_id"`
	Method        string    `db:"method"`
	Reference     string    `db:"reference"`
	BookingAmount int64     `db:"booking_amount"`
	PlatformFee   int64     `db:"platform_fee"`
	Total         int64     `db:"total"`
	CapturedAt    time.Time `db:"captured_at"`
}

func (r *paymentRow) toEntity() *entity.Payment {
	return &entity.Payment{
		ID:            r.ID,
		BookingID:     r.BookingID,
		ShipperID:     r.ShipperID,
		Method:        valueobject.PaymentMethod(r.Method),
		Reference:     r.Reference,
		BookingAmount: valueobject.Money(r.BookingAmount),
		PlatformFee:   valueobject.Money(r.PlatformFee),
		Total:         valueobject.Money(r.Total),
		CapturedAt:    r.CapturedAt,
	}
}

type PaymentRepository struct {
	q sqlx.ExtContext
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		p.ID, p.BookingID, p.ShipperID, string(p.Method), p.Reference,
		p.BookingAmount.Int64(), p.PlatformFee.Int64(), p.Total.Int64(), p.CapturedAt,
	)
	if common.IsUniqueViolation(err) {
		return apperror.ErrDuplicateOperation
	}
	return common.DBError(err, "не удалось сохранить платёж")
}

func (r *PaymentRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	row, err := common.GetOne[paymentRow](ctx, r.q, apperror.ErrPaymentNotFound,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить платёж")
	}
	return row.toEntity(), nil
}

func (r *PaymentRepository) List(ctx context.Context, shipperID *uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	var w where
	if shipperID != nil {
		w.add("shipper_id = %s", *shipperID)
	}
	query, args := w.page(`SELECT `+paymentColumns+` FROM payments`+w.String()+` ORDER BY captured_at DESC, id`, limit, offset)
	list, err := common.SelectMapped(ctx, r.q, (*paymentRow).toEntity, query, args...)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить историю платежей")
	}
	return list, nil
}
