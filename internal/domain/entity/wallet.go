package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// PlatformOwnerID: владелец кошелька площадки, куда зачисляется комиссия.
var PlatformOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Balances: три части баланса кошелька. Все три не бывают отрицательными.
type Balances struct {
	Available valueobject.Money
	Pending   valueobject.Money
	Locked    valueobject.Money
}

func (b Balances) Total() valueobject.Money {
	return b.Available + b.Pending + b.Locked
}

// Wallet: кошелёк перевозчика, сопровождающего или площадки.
type Wallet struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Balances
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewWallet(ownerID uuid.UUID) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply проводит транзакцию по балансам кошелька.
// Все изменения балансов в системе идут только через Apply, поэтому баланс
// всегда восстанавливается повторным проигрыванием журнала транзакций.
func (w *Wallet) Apply(t *Transaction) error {
	if t.WalletID != w.ID {
		return apperror.New(apperror.ErrCodeInternal, "транзакция относится к другому кошельку")
	}
	if err := w.Balances.apply(t); err != nil {
		return err
	}
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (b *Balances) apply(t *Transaction) error {
	if t.Status != valueobject.TransactionStatusCompleted {
		return nil
	}
	amount := t.Amount
	if amount <= 0 {
		return apperror.ErrInvalidAmount
	}

	switch t.Type {
	case valueobject.TransactionTypePlatformFee:
		b.Available += amount
	case valueobject.TransactionTypeEarningPending:
		b.Pending += amount
	case valueobject.TransactionTypeEarningRelease:
		if b.Pending < amount {
			return apperror.New(apperror.ErrCodeInvalidState, "в ожидании меньше средств, чем требуется выпустить")
		}
		b.Pending -= amount
		b.Available += amount
	case valueobject.TransactionTypeWithdrawalReserved:
		if b.Available < amount {
			return apperror.ErrInsufficientFunds
		}
		b.Available -= amount
		b.Locked += amount
	case valueobject.TransactionTypeWithdrawalCompleted:
		if b.Locked < amount {
			return apperror.New(apperror.ErrCodeInvalidState, "заблокировано меньше средств, чем требуется списать")
		}
		b.Locked -= amount
	case valueobject.TransactionTypeWithdrawalReversed:
		if b.Locked < amount {
			return apperror.New(apperror.ErrCodeInvalidState, "заблокировано меньше средств, чем требуется вернуть")
		}
		b.Locked -= amount
		b.Available += amount
	default:
		return apperror.New(apperror.ErrCodeValidation, "неизвестный тип транзакции")
	}
	return nil
}

// Replay восстанавливает балансы по журналу транзакций кошелька (в порядке записи).
func Replay(txs []*Transaction) (Balances, error) {
	var b Balances
	for _, t := range txs {
		if err := b.apply(t); err != nil {
			return b, err
		}
	}
	return b, nil
}

func (w *Wallet) IsOwnedBy(userID uuid.UUID) bool {
	return w.OwnerID == userID
}
