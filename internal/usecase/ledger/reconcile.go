package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/metrics"
)

type WalletDrift struct {
	WalletID uuid.UUID
	OwnerID  uuid.UUID
	Stored   entity.Balances
	Replayed entity.Balances
	// ReplayError заполнен, если журнал не проигрывается (нарушен порядок или суммы).
	ReplayError string
}

type ReconcileReport struct {
	CheckedAt time.Time
	Wallets   int
	Drifts    []WalletDrift
}

func (r *ReconcileReport) Consistent() bool {
	return len(r.Drifts) == 0
}

type ReconcileUseCase struct {
	store repository.Store
}

func NewReconcileUseCase(store repository.Store) *ReconcileUseCase {
	return &ReconcileUseCase{store: store}
}

// Execute проигрывает журнал каждого кошелька и сравнивает с сохранёнными балансами.
// Только чтение: расхождения исправляются вручную.
func (uc *ReconcileUseCase) Execute(ctx context.Context) (*ReconcileReport, error) {
	wallets, err := uc.store.Wallets().List(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{CheckedAt: time.Now().UTC(), Wallets: len(wallets)}
	for _, listed := range wallets {
		w, txs, err := uc.snapshot(ctx, listed.ID)
		if err != nil {
			return nil, err
		}
		replayed, replayErr := entity.Replay(txs)
		if replayErr == nil && replayed == w.Balances {
			continue
		}

		drift := WalletDrift{
			WalletID: w.ID,
			OwnerID:  w.OwnerID,
			Stored:   w.Balances,
			Replayed: replayed,
		}
		if replayErr != nil {
			drift.ReplayError = replayErr.Error()
		}
		report.Drifts = append(report.Drifts, drift)

		logger.Log.WithFields(logrus.Fields{
			"wallet_id":          w.ID,
			"stored_available":   w.Available.String(),
			"replayed_available": replayed.Available.String(),
			"stored_pending":     w.Pending.String(),
			"replayed_pending":   replayed.Pending.String(),
			"stored_locked":      w.Locked.String(),
			"replayed_locked":    replayed.Locked.String(),
		}).Error("ledger: баланс кошелька расходится с журналом")
	}

	metrics.SetReconcileDrift(len(report.Drifts))
	return report, nil
}

// snapshot читает баланс и журнал кошелька в одной транзакции. Строка кошелька
// блокируется: проводки берут ту же блокировку, поэтому журнал не обгоняет баланс.
func (uc *ReconcileUseCase) snapshot(ctx context.Context, walletID uuid.UUID) (*entity.Wallet, []*entity.Transaction, error) {
	var (
		wallet *entity.Wallet
		txs    []*entity.Transaction
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if wallet, err = repos.Wallets().FindByIDForUpdate(ctx, walletID); err != nil {
			return err
		}
		txs, err = repos.Transactions().ListAllByWallet(ctx, walletID)
		return err
	})
	return wallet, txs, err
}
