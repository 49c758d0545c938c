// Package ledger ведёт эскроу-учёт: комиссию площадки, заработок перевозчика и кошельки.
package ledger

import (
	"context"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
)

// Post проводит транзакцию по кошельку и записывает её в журнал.
// Вызывается только внутри Transactor.WithinTx и только с кошельком,
// заблокированным в этой же транзакции.
func Post(ctx context.Context, repos repository.Repositories, wallet *entity.Wallet, tx *entity.Transaction) error {
	if err := wallet.Apply(tx); err != nil {
		return err
	}
	if err := repos.Transactions().Append(ctx, tx); err != nil {
		return err
	}
	return repos.Wallets().UpdateBalances(ctx, wallet)
}
