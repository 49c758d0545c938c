package withdrawal

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
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
)

type RequestWithdrawalInput struct {
	Actor         valueobject.Actor
	WalletID      *uuid.UUID
	Amount        int64
	BankAccountID uuid.UUID
}

type RequestWithdrawalUseCase struct {
	store  repository.Store
	locker keylock.Locker
}

func NewRequestWithdrawalUseCase(store repository.Store, locker keylock.Locker) *RequestWithdrawalUseCase {
	return &RequestWithdrawalUseCase{store: store, locker: locker}
}

// Execute резервирует сумму: available уменьшается, locked увеличивается на ту же сумму.
func (uc *RequestWithdrawalUseCase) Execute(ctx context.Context, input RequestWithdrawalInput) (*entity.WithdrawalRequest, error) {
	amount, err := valueobject.NewPositiveMoney(input.Amount)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.store.Wallets().FindByOwner(ctx, input.Actor.ID)
	if err != nil {
		if apperror.IsNotFound(err) && input.WalletID != nil {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if input.WalletID != nil && *input.WalletID != wallet.ID {
		return nil, apperror.ErrUnauthorized
	}

	account, err := uc.store.BankAccounts().FindByID(ctx, input.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsOwnedBy(input.Actor.ID) {
		return nil, apperror.ErrBankAccountNotFound
	}

	unlock, err := uc.locker.Lock(ctx, keylock.WalletKey(wallet.OwnerID))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось заблокировать кошелёк")
	}
	defer unlock()

	request, err := entity.NewWithdrawalRequest(wallet.ID, account.ID, amount.Int64())
	if err != nil {
		return nil, err
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Wallets().FindByIDForUpdate(ctx, wallet.ID)
		if err != nil {
			return err
		}
		if locked.Available < amount {
			return apperror.ErrInsufficientFunds
		}
		if err := repos.Withdrawals().Create(ctx, request); err != nil {
			return err
		}
		reserve := entity.NewTransaction(locked.ID, valueobject.TransactionTypeWithdrawalReserved, amount, request.ID)
		if err := ledger.Post(ctx, repos, locked, reserve); err != nil {
			return err
		}
		wallet = locked
		return nil
	})
	if err != nil {
		metrics.IncLedgerOperation("withdrawal_request", outcome(err))
		return nil, err
	}

	metrics.IncLedgerOperation("withdrawal_request", "success")
	metrics.AddLedgerVolume(string(valueobject.TransactionTypeWithdrawalReserved), amount.Int64())
	logger.Log.WithFields(logrus.Fields{
		"withdrawal_id": request.ID,
		"wallet_id":     wallet.ID,
		"amount":        amount.String(),
	}).Info("withdrawal: средства зарезервированы")
	return request, nil
}

type ResolveWithdrawalUseCase struct {
	store     repository.Store
	locker    keylock.Locker
	publisher event.Publisher
}

func NewResolveWithdrawalUseCase(store repository.Store, locker keylock.Locker, publisher event.Publisher) *ResolveWithdrawalUseCase {
	return &ResolveWithdrawalUseCase{store: store, locker: locker, publisher: event.OrNop(publisher)}
}

// Approve списывает зарезервированную сумму: выплата отправлена в банк.
func (uc *ResolveWithdrawalUseCase) Approve(ctx context.Context, requestID uuid.UUID, actor valueobject.Actor) (*entity.WithdrawalRequest, error) {
	return uc.resolve(ctx, requestID, actor, func(request *entity.WithdrawalRequest) (valueobject.TransactionType, error) {
		return valueobject.TransactionTypeWithdrawalCompleted, request.Complete(actor.ID)
	})
}

// Reject возвращает зарезервированную сумму в available.
func (uc *ResolveWithdrawalUseCase) Reject(ctx context.Context, requestID uuid.UUID, reason string, actor valueobject.Actor) (*entity.WithdrawalRequest, error) {
	return uc.resolve(ctx, requestID, actor, func(request *entity.WithdrawalRequest) (valueobject.TransactionType, error) {
		return valueobject.TransactionTypeWithdrawalReversed, request.Reject(actor.ID, reason)
	})
}

func (uc *ResolveWithdrawalUseCase) resolve(
	ctx context.Context,
	requestID uuid.UUID,
	actor valueobject.Actor,
	decide func(*entity.WithdrawalRequest) (valueobject.TransactionType, error),
) (*entity.WithdrawalRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrUnauthorized
	}

	request, err := uc.store.Withdrawals().FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	wallet, err := uc.store.Wallets().FindByID(ctx, request.WalletID)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.locker.Lock(ctx, keylock.WalletKey(wallet.OwnerID))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось заблокировать кошелёк")
	}
	defer unlock()

	var txType valueobject.TransactionType
	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Withdrawals().FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if txType, err = decide(current); err != nil {
			return err
		}
		resolved, err := repos.Withdrawals().Resolve(ctx, current)
		if err != nil {
			return err
		}
		if !resolved {
			return apperror.New(apperror.ErrCodeInvalidState, "заявка на вывод уже обработана")
		}

		locked, err := repos.Wallets().FindByIDForUpdate(ctx, current.WalletID)
		if err != nil {
			return err
		}
		if err := ledger.Post(ctx, repos, locked, entity.NewTransaction(locked.ID, txType, current.Amount, current.ID)); err != nil {
			return err
		}
		request = current
		return nil
	})
	if err != nil {
		metrics.IncLedgerOperation("withdrawal_resolve", outcome(err))
		return nil, err
	}

	metrics.IncLedgerOperation("withdrawal_resolve", string(request.Status))
	metrics.AddLedgerVolume(string(txType), request.Amount.Int64())
	logger.Log.WithFields(logrus.Fields{
		"withdrawal_id": request.ID,
		"wallet_id":     request.WalletID,
		"status":        request.Status,
		"amount":        request.Amount.String(),
		"admin_id":      actor.ID,
	}).Info("withdrawal: заявка обработана")

	uc.publisher.Publish(wallet.OwnerID, event.WithdrawalResolved, map[string]any{
		"withdrawal_id": request.ID,
		"status":        request.Status,
		"reason":        request.Reason,
	})
	return request, nil
}

type ListWithdrawalsUseCase struct {
	walletRepo     repository.WalletRepository
	withdrawalRepo repository.WithdrawalRepository
}

func NewListWithdrawalsUseCase(walletRepo repository.WalletRepository, withdrawalRepo repository.WithdrawalRepository) *ListWithdrawalsUseCase {
	return &ListWithdrawalsUseCase{walletRepo: walletRepo, withdrawalRepo: withdrawalRepo}
}

// ForOwner возвращает заявки на вывод из кошелька владельца.
func (uc *ListWithdrawalsUseCase) ForOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.WithdrawalRequest, error) {
	wallet, err := uc.walletRepo.FindByOwner(ctx, ownerID)
	if apperror.IsNotFound(err) {
		return []*entity.WithdrawalRequest{}, nil
	}
	if err != nil {
		return nil, err
	}
	return uc.withdrawalRepo.List(ctx, repository.WithdrawalFilter{WalletID: &wallet.ID, Limit: limit, Offset: offset})
}

type AdminListInput struct {
	Actor    valueobject.Actor
	Status   string
	WalletID *uuid.UUID
	Limit    int
	Offset   int
}

func (uc *ListWithdrawalsUseCase) AdminList(ctx context.Context, input AdminListInput) ([]*entity.WithdrawalRequest, error) {
	if !input.Actor.IsAdmin() {
		return nil, apperror.ErrUnauthorized
	}
	filter := repository.WithdrawalFilter{WalletID: input.WalletID, Limit: input.Limit, Offset: input.Offset}
	if input.Status != "" {
		status, err := valueobject.NewWithdrawalStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	return uc.withdrawalRepo.List(ctx, filter)
}

func outcome(err error) string {
	if code := apperror.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
