package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
	"github.com/ignatzorin/freight-backend/internal/repository/common"
)

const walletColumns = `id, owner_id, available, pending, locked, created_at, updated_at`

type walletRow struct {
	ID        uuid.UUID `db:"id"`
	OwnerID   uuid.UUID `db:"owner_id"`
	Available int64     `db:"available"`
	Pending   int64     `db:"pending"`
	Locked    int64     `db:"locked"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *walletRow) toEntity() *entity.Wallet {
	return &entity.Wallet{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Balances: entity.Balances{
			Available: valueobject.Money(r.Available),
			Pending:   valueobject.Money(r.Pending),
			Locked:    valueobject.Money(r.Locked),
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type WalletRepository struct {
	q sqlx.ExtContext
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

func (r *WalletRepository) GetOrCreateForUpdate(ctx context.Context, ownerID uuid.UUID) (*entity.Wallet, error) {
	w := entity.NewWallet(ownerID)
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO wallets (id, owner_id, available, pending, locked, created_at, updated_at)
		VALUES ($1, $2, 0, 0, 0, $3, $4)
		ON CONFLICT (owner_id) DO NOTHING
	`, w.ID, w.OwnerID, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return nil, common.DBError(err, "не удалось создать кошелёк")
	}
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 FOR UPDATE`, ownerID)
}

func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
}

func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
}

func (r *WalletRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerID)
}

func (r *WalletRepository) findOne(ctx context.Context, query string, arg uuid.UUID) (*entity.Wallet, error) {
	row, err := common.GetOne[walletRow](ctx, r.q, apperror.ErrWalletNotFound, query, arg)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить кошелёк")
	}
	return row.toEntity(), nil
}

// UpdateBalances пишет балансы; CHECK-ограничения таблицы не дают им уйти в минус.
func (r *WalletRepository) UpdateBalances(ctx context.Context, w *entity.Wallet) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE wallets SET available = $2, pending = $3, locked = $4, updated_at = $5 WHERE id = $1
	`, w.ID, w.Available.Int64(), w.Pending.Int64(), w.Locked.Int64(), w.UpdatedAt)
	if err != nil {
		return common.DBError(err, "не удалось обновить баланс кошелька")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrWalletNotFound
	}
	return nil
}

func (r *WalletRepository) List(ctx context.Context) ([]*entity.Wallet, error) {
	wallets, err := common.SelectMapped(ctx, r.q, (*walletRow).toEntity,
		`SELECT `+walletColumns+` FROM wallets ORDER BY created_at, id`)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить список кошельков")
	}
	return wallets, nil
}

const transactionColumns = `id, wallet_id, type, amount, status, reference_id, created_at`

type transactionRow struct {
	ID          uuid.UUID `db:"id"`
	WalletID    uuid.UUID `db:"wallet_id"`
	Type        string    `db:"type"`
	Amount      int64     `db:"amount"`
	Status      string    `db:"status"`
	ReferenceID uuid.UUID `db:"reference_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *transactionRow) toEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:          r.ID,
		WalletID:    r.WalletID,
		Type:        valueobject.TransactionType(r.Type),
		Amount:      valueobject.Money(r.Amount),
		Status:      valueobject.TransactionStatus(r.Status),
		ReferenceID: r.ReferenceID,
		CreatedAt:   r.CreatedAt,
	}
}

type TransactionRepository struct {
	q sqlx.ExtContext
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{q: db}
}

// Append опирается на частичный уникальный индекс (reference_id, type) для однократных типов.
func (r *TransactionRepository) Append(ctx context.Context, tx *entity.Transaction) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO transactions (id, wallet_id, type, amount, status, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tx.ID, tx.WalletID, string(tx.Type), tx.Amount.Int64(), string(tx.Status), tx.ReferenceID, tx.CreatedAt)
	if common.IsUniqueViolation(err) {
		return apperror.ErrDuplicateOperation
	}
	return common.DBError(err, "не удалось записать транзакцию")
}

func (r *TransactionRepository) FindByReference(ctx context.Context, referenceID uuid.UUID, txType valueobject.TransactionType) (*entity.Transaction, error) {
	row, err := common.GetOne[transactionRow](ctx, r.q, apperror.ErrTransactionNotFound, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE reference_id = $1 AND type = $2
		ORDER BY seq
		LIMIT 1
	`, referenceID, string(txType))
	if err != nil {
		return nil, common.DBError(err, "не удалось получить транзакцию")
	}
	return row.toEntity(), nil
}

func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	w := where{}
	w.add("wallet_id = %s", walletID)
	query, args := w.page(`SELECT `+transactionColumns+` FROM transactions`+w.String()+` ORDER BY seq DESC`, limit, offset)
	txs, err := common.SelectMapped(ctx, r.q, (*transactionRow).toEntity, query, args...)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить транзакции")
	}
	return txs, nil
}

func (r *TransactionRepository) ListAllByWallet(ctx context.Context, walletID uuid.UUID) ([]*entity.Transaction, error) {
	txs, err := common.SelectMapped(ctx, r.q, (*transactionRow).toEntity,
		`SELECT `+transactionColumns+` FROM transactions WHERE wallet_id = $1 ORDER BY seq`, walletID)
	if err != nil {
		return nil, common.DBError(err, "не удалось получить журнал кошелька")
	}
	return txs, nil
}
