package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// BankAccount: реквизиты для выплат. AccountNumber хранится здесь в открытом виде,
// шифрование выполняет слой use case перед сохранением.
type BankAccount struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	HolderName    string
	BankName      string
	AccountNumber string
	RoutingNumber string
	IsPrimary     bool
	CreatedAt     time.Time
}

func NewBankAccount(ownerID uuid.UUID, holderName, bankName, accountNumber, routingNumber string, isPrimary bool) (*BankAccount, error) {
	holderName = strings.TrimSpace(holderName)
	bankName = strings.TrimSpace(bankName)
	accountNumber = strings.ReplaceAll(strings.TrimSpace(accountNumber), " ", "")
	routingNumber = strings.TrimSpace(routingNumber)

	if holderName == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя владельца счёта обязательно")
	}
	if bankName == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название банка обязательно")
	}
	if len(accountNumber) < 4 || len(accountNumber) > 34 || !isDigits(accountNumber) {
		return nil, apperror.New(apperror.ErrCodeValidation, "номер счёта должен содержать от 4 до 34 цифр")
	}
	if routingNumber == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "код банка обязателен")
	}

	return &BankAccount{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		HolderName:    holderName,
		BankName:      bankName,
		AccountNumber: accountNumber,
		RoutingNumber: routingNumber,
		IsPrimary:     isPrimary,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// MaskedNumber возвращает номер счёта в виде ****1234.
func (a *BankAccount) MaskedNumber() string {
	if len(a.AccountNumber) <= 4 {
		return "****" + a.AccountNumber
	}
	return "****" + a.AccountNumber[len(a.AccountNumber)-4:]
}

func (a *BankAccount) IsOwnedBy(userID uuid.UUID) bool {
	return a.OwnerID == userID
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
