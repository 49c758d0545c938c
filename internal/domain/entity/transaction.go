package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
)

// Transaction: запись журнала. Только добавляется, никогда не меняется.
type Transaction struct {
	ID          uuid.UUID
	WalletID    uuid.UUID
	Type        valueobject.TransactionType
	Amount      valueobject.Money
	Status      valueobject.TransactionStatus
	ReferenceID uuid.UUID
	CreatedAt   time.Time
}

func NewTransaction(walletID uuid.UUID, txType valueobject.TransactionType, amount valueobject.Money, referenceID uuid.UUID) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Type:        txType,
		Amount:      amount,
		Status:      valueobject.TransactionStatusCompleted,
		ReferenceID: referenceID,
		CreatedAt:   time.Now().UTC(),
	}
}
