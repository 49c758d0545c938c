package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type walletRepo struct{ *repos }

func (r *walletRepo) GetOrCreateForUpdate(ctx context.Context, ownerID uuid.UUID) (*entity.Wallet, error) {
	defer r.lock()()
	if w, ok := r.findByOwner(ownerID); ok {
		return &w, nil
	}
	w := entity.NewWallet(ownerID)
	r.st.wallets.put(w.ID, *w)
	return w, nil
}

func (r *walletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Wallet, error) {
	defer r.lock()()
	row, ok := r.st.wallets.get(id)
	if !ok {
		return nil, apperror.ErrWalletNotFound
	}
	return &row, nil
}

func (r *walletRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Wallet, error) {
	return r.FindByID(ctx, id)
}

func (r *walletRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Wallet, error) {
	defer r.lock()()
	w, ok := r.findByOwner(ownerID)
	if !ok {
		return nil, apperror.ErrWalletNotFound
	}
	return &w, nil
}

func (r *walletRepo) UpdateBalances(ctx context.Context, wallet *entity.Wallet) error {
	defer r.lock()()
	current, ok := r.st.wallets.get(wallet.ID)
	if !ok {
		return apperror.ErrWalletNotFound
	}
	// Аналог CHECK (... >= 0) в схеме Postgres.
	if wallet.Available < 0 || wallet.Pending < 0 || wallet.Locked < 0 {
		return apperror.New(apperror.ErrCodeDatabaseError, "баланс кошелька не может быть отрицательным")
	}
	current.Balances = wallet.Balances
	current.UpdatedAt = wallet.UpdatedAt
	r.st.wallets.put(current.ID, current)
	return nil
}

func (r *walletRepo) List(ctx context.Context) ([]*entity.Wallet, error) {
	defer r.lock()()
	rows := r.st.wallets.all()
	out := make([]*entity.Wallet, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r *walletRepo) findByOwner(ownerID uuid.UUID) (entity.Wallet, bool) {
	for _, w := range r.st.wallets.all() {
		if w.OwnerID == ownerID {
			return w, true
		}
	}
	return entity.Wallet{}, false
}

type transactionRepo struct{ *repos }

func (r *transactionRepo) Append(ctx context.Context, tx *entity.Transaction) error {
	defer r.lock()()
	if _, ok := r.st.wallets.get(tx.WalletID); !ok {
		return apperror.ErrWalletNotFound
	}
	if tx.Type.IsOncePerReference() {
		for _, existing := range r.st.transactions {
			if existing.ReferenceID == tx.ReferenceID && existing.Type == tx.Type {
				return apperror.ErrDuplicateOperation
			}
		}
	}
	r.st.transactions = append(r.st.transactions, *tx)
	return nil
}

func (r *transactionRepo) FindByReference(ctx context.Context, referenceID uuid.UUID, txType valueobject.TransactionType) (*entity.Transaction, error) {
	defer r.lock()()
	for _, t := range r.st.transactions {
		if t.ReferenceID == referenceID && t.Type == txType {
			found := t
			return &found, nil
		}
	}
	return nil, apperror.ErrTransactionNotFound
}

func (r *transactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	all, err := r.ListAllByWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return paginate(reversed(all), limit, offset), nil
}

func (r *transactionRepo) ListAllByWallet(ctx context.Context, walletID uuid.UUID) ([]*entity.Transaction, error) {
	defer r.lock()()
	var out []*entity.Transaction
	for _, t := range r.st.transactions {
		if t.WalletID == walletID {
			found := t
			out = append(out, &found)
		}
	}
	return out, nil
}
