package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByIDForUpdate блокирует строку до конца транзакции.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// CompareAndSwap сохраняет заявку, только если её текущий статус входит в expected.
	// Возвращает false, если статус уже изменился.
	CompareAndSwap(ctx context.Context, booking *entity.Booking, expected ...valueobject.BookingStatus) (bool, error)
	List(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
}

type BookingFilter struct {
	ShipperID *uuid.UUID
	CarrierID *uuid.UUID
	Statuses  []valueobject.BookingStatus
	Paid      *bool
	Limit     int
	Offset    int
}

type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	Update(ctx context.Context, quote *entity.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Quote, error)
	List(ctx context.Context, filter QuoteFilter) ([]*entity.Quote, error)
	CountByBooking(ctx context.Context, bookingID uuid.UUID) (int, error)
}

type QuoteFilter struct {
	BookingID *uuid.UUID
	CarrierID *uuid.UUID
	ShipperID *uuid.UUID
	Status    *valueobject.QuoteStatus
	Limit     int
	Offset    int
}

type WalletRepository interface {
	// GetOrCreateForUpdate возвращает кошелёк владельца, создавая его при первом зачислении,
	// и блокирует строку до конца транзакции.
	GetOrCreateForUpdate(ctx context.Context, ownerID uuid.UUID) (*entity.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Wallet, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Wallet, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Wallet, error)
	UpdateBalances(ctx context.Context, wallet *entity.Wallet) error
	List(ctx context.Context) ([]*entity.Wallet, error)
}

type TransactionRepository interface {
	// Append добавляет запись в журнал. Повтор однократного типа по той же ссылке
	// возвращает ошибку DUPLICATE_OPERATION.
	Append(ctx context.Context, tx *entity.Transaction) error
	FindByReference(ctx context.Context, referenceID uuid.UUID, txType valueobject.TransactionType) (*entity.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entity.Transaction, error)
	// ListAllByWallet возвращает весь журнал кошелька в порядке записи.
	ListAllByWallet(ctx context.Context, walletID uuid.UUID) ([]*entity.Transaction, error)
}

type WithdrawalRepository interface {
	Create(ctx context.Context, request *entity.WithdrawalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WithdrawalRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WithdrawalRequest, error)
	// Resolve сохраняет решение, только если заявка всё ещё в статусе pending.
	Resolve(ctx context.Context, request *entity.WithdrawalRequest) (bool, error)
	List(ctx context.Context, filter WithdrawalFilter) ([]*entity.WithdrawalRequest, error)
}

type WithdrawalFilter struct {
	WalletID *uuid.UUID
	Status   *valueobject.WithdrawalStatus
	Limit    int
	Offset   int
}

type BankAccountRepository interface {
	Create(ctx context.Context, account *entity.BankAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.BankAccount, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.BankAccount, error)
	ClearPrimary(ctx context.Context, ownerID uuid.UUID) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	List(ctx context.Context, shipperID *uuid.UUID, limit, offset int) ([]*entity.Payment, error)
}

// Repositories: набор репозиториев, привязанных к одному соединению или транзакции.
type Repositories interface {
	Bookings() BookingRepository
	Quotes() QuoteRepository
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Withdrawals() WithdrawalRepository
	BankAccounts() BankAccountRepository
	Payments() PaymentRepository
}

// Transactor выполняет fn в одной транзакции. Ошибка из fn откатывает все изменения.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store является точкой входа хранилища для чтения вне транзакции и для транзакций.
type Store interface {
	Repositories
	Transactor
}
