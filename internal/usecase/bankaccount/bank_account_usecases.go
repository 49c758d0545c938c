package bankaccount

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// Sealer шифрует номер счёта перед сохранением.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type AddBankAccountInput struct {
	Actor         valueobject.Actor
	HolderName    string
	BankName      string
	AccountNumber string
	RoutingNumber string
	IsPrimary     bool
}

type AddBankAccountUseCase struct {
	transactor repository.Transactor
	sealer     Sealer
}

func NewAddBankAccountUseCase(transactor repository.Transactor, sealer Sealer) *AddBankAccountUseCase {
	return &AddBankAccountUseCase{transactor: transactor, sealer: sealer}
}

// Execute возвращает счёт с номером в открытом виде, в хранилище он попадает зашифрованным.
// Первый счёт владельца всегда основной.
func (uc *AddBankAccountUseCase) Execute(ctx context.Context, input AddBankAccountInput) (*entity.BankAccount, error) {
	if !input.Actor.Role.CanOwnWallet() {
		return nil, apperror.ErrUnauthorized
	}

	account, err := entity.NewBankAccount(input.Actor.ID, input.HolderName, input.BankName, input.AccountNumber, input.RoutingNumber, input.IsPrimary)
	if err != nil {
		return nil, err
	}

	sealed, err := uc.sealer.Seal(account.AccountNumber)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось зашифровать номер счёта")
	}
	stored := *account
	stored.AccountNumber = sealed

	err = uc.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.BankAccounts().ListByOwner(ctx, input.Actor.ID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			stored.IsPrimary = true
		}
		if stored.IsPrimary && len(existing) > 0 {
			if err := repos.BankAccounts().ClearPrimary(ctx, input.Actor.ID); err != nil {
				return err
			}
		}
		return repos.BankAccounts().Create(ctx, &stored)
	})
	if err != nil {
		return nil, err
	}
	account.IsPrimary = stored.IsPrimary

	logger.Log.WithFields(logrus.Fields{
		"bank_account_id": account.ID,
		"owner_id":        account.OwnerID,
		"is_primary":      account.IsPrimary,
	}).Info("bankaccount: счёт добавлен")
	return account, nil
}

type ListBankAccountsUseCase struct {
	bankAccountRepo repository.BankAccountRepository
	sealer          Sealer
}

func NewListBankAccountsUseCase(bankAccountRepo repository.BankAccountRepository, sealer Sealer) *ListBankAccountsUseCase {
	return &ListBankAccountsUseCase{bankAccountRepo: bankAccountRepo, sealer: sealer}
}

// Execute возвращает счета владельца с расшифрованными номерами. Наружу номер
// отдаётся только через BankAccount.MaskedNumber.
func (uc *ListBankAccountsUseCase) Execute(ctx context.Context, ownerID uuid.UUID) ([]*entity.BankAccount, error) {
	accounts, err := uc.bankAccountRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		number, err := uc.sealer.Open(account.AccountNumber)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось расшифровать номер счёта")
		}
		account.AccountNumber = number
	}
	return accounts, nil
}
