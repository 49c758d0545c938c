package ledger

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

type ReleaseResult struct {
	Transaction     *entity.Transaction
	AlreadyReleased bool
}

type ReleaseEscrowUseCase struct {
	store     repository.Store
	locker    keylock.Locker
	publisher event.Publisher
}

func NewReleaseEscrowUseCase(store repository.Store, locker keylock.Locker, publisher event.Publisher) *ReleaseEscrowUseCase {
	return &ReleaseEscrowUseCase{store: store, locker: locker, publisher: event.OrNop(publisher)}
}

// Execute переводит заработок перевозчика из pending в available после завершения перевозки.
// Повторный вызов ничего не меняет и возвращает уже проведённую транзакцию.
func (uc *ReleaseEscrowUseCase) Execute(ctx context.Context, bookingID uuid.UUID) (*ReleaseResult, error) {
	booking, err := uc.store.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != valueobject.BookingStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "выпустить средства можно только по завершённой заявке")
	}
	if booking.CarrierID == nil || !booking.Paid {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заявка не оплачена")
	}
	carrierID := *booking.CarrierID

	unlock, err := uc.locker.Lock(ctx, keylock.WalletKey(carrierID))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось заблокировать кошелёк")
	}
	defer unlock()

	if released, err := releasedEscrow(ctx, uc.store, booking.ID); err != nil || released != nil {
		return released, err
	}

	var release *entity.Transaction
	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		earning, err := repos.Transactions().FindByReference(ctx, booking.ID, valueobject.TransactionTypeEarningPending)
		if apperror.IsNotFound(err) {
			return apperror.New(apperror.ErrCodeInvalidState, "по заявке нет средств в ожидании")
		}
		if err != nil {
			return err
		}
		wallet, err := repos.Wallets().FindByIDForUpdate(ctx, earning.WalletID)
		if err != nil {
			return err
		}
		release = entity.NewTransaction(wallet.ID, valueobject.TransactionTypeEarningRelease, earning.Amount, booking.ID)
		return Post(ctx, repos, wallet, release)
	})
	if err != nil {
		if apperror.IsDuplicate(err) {
			metrics.IncLedgerOperation("release", "duplicate")
			return releasedEscrow(ctx, uc.store, booking.ID)
		}
		metrics.IncLedgerOperation("release", "failed")
		return nil, err
	}

	metrics.IncLedgerOperation("release", "success")
	metrics.AddLedgerVolume(string(release.Type), release.Amount.Int64())
	logger.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"wallet_id":  release.WalletID,
		"amount":     release.Amount.String(),
	}).Info("ledger: средства перевозчика выпущены")

	uc.publisher.Publish(carrierID, event.EscrowReleased, map[string]any{
		"booking_id": booking.ID,
		"amount":     release.Amount,
	})
	return &ReleaseResult{Transaction: release}, nil
}

func releasedEscrow(ctx context.Context, repos repository.Repositories, bookingID uuid.UUID) (*ReleaseResult, error) {
	existing, err := repos.Transactions().FindByReference(ctx, bookingID, valueobject.TransactionTypeEarningRelease)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ReleaseResult{Transaction: existing, AlreadyReleased: true}, nil
}
