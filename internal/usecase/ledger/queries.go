package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/repository"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

type GetSettlementUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewGetSettlementUseCase(bookingRepo repository.BookingRepository) *GetSettlementUseCase {
	return &GetSettlementUseCase{bookingRepo: bookingRepo}
}

// Execute показывает, сколько заплатит грузоотправитель по согласованной цене.
func (uc *GetSettlementUseCase) Execute(ctx context.Context, bookingID uuid.UUID, actor valueobject.Actor) (valueobject.Settlement, error) {
	booking, err := uc.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return valueobject.Settlement{}, err
	}
	if !actor.IsAdmin() && !booking.IsOwnedBy(actor.ID) && !booking.IsCarriedBy(actor.ID) {
		return valueobject.Settlement{}, apperror.ErrForbidden
	}
	if booking.AgreedPrice == nil {
		return valueobject.Settlement{}, apperror.New(apperror.ErrCodeInvalidState, "цена по заявке ещё не согласована")
	}
	return valueobject.ComputeSettlement(*booking.AgreedPrice), nil
}

type AwaitingPayment struct {
	Booking    *entity.Booking
	Settlement valueobject.Settlement
}

type ListAwaitingPaymentsUseCase struct {
	bookingRepo repository.BookingRepository
}

func NewListAwaitingPaymentsUseCase(bookingRepo repository.BookingRepository) *ListAwaitingPaymentsUseCase {
	return &ListAwaitingPaymentsUseCase{bookingRepo: bookingRepo}
}

// Execute возвращает заявки с выбранным перевозчиком, которые ещё не оплачены.
func (uc *ListAwaitingPaymentsUseCase) Execute(ctx context.Context, actor valueobject.Actor) ([]AwaitingPayment, error) {
	unpaid := false
	filter := repository.BookingFilter{
		Statuses: []valueobject.BookingStatus{valueobject.BookingStatusBooked},
		Paid:     &unpaid,
	}
	switch {
	case actor.IsAdmin():
	case actor.Is(valueobject.RoleShipper):
		filter.ShipperID = &actor.ID
	default:
		return nil, apperror.ErrForbidden
	}

	bookings, err := uc.bookingRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := make([]AwaitingPayment, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, AwaitingPayment{
			Booking:    b,
			Settlement: valueobject.ComputeSettlement(b.Price()),
		})
	}
	return result, nil
}

// PaymentHistory: для грузоотправителя и администратора заполнены квитанции,
// для владельца кошелька: журнал транзакций.
type PaymentHistory struct {
	Payments     []*entity.Payment
	Transactions []*entity.Transaction
}

type ListPaymentHistoryUseCase struct {
	paymentRepo     repository.PaymentRepository
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
}

func NewListPaymentHistoryUseCase(paymentRepo repository.PaymentRepository, walletRepo repository.WalletRepository, transactionRepo repository.TransactionRepository) *ListPaymentHistoryUseCase {
	return &ListPaymentHistoryUseCase{
		paymentRepo:     paymentRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

func (uc *ListPaymentHistoryUseCase) Execute(ctx context.Context, actor valueobject.Actor, limit, offset int) (*PaymentHistory, error) {
	switch {
	case actor.IsAdmin():
		payments, err := uc.paymentRepo.List(ctx, nil, limit, offset)
		if err != nil {
			return nil, err
		}
		return &PaymentHistory{Payments: payments}, nil
	case actor.Is(valueobject.RoleShipper):
		payments, err := uc.paymentRepo.List(ctx, &actor.ID, limit, offset)
		if err != nil {
			return nil, err
		}
		return &PaymentHistory{Payments: payments}, nil
	case actor.Role.CanOwnWallet():
		wallet, err := uc.walletRepo.FindByOwner(ctx, actor.ID)
		if apperror.IsNotFound(err) {
			return &PaymentHistory{}, nil
		}
		if err != nil {
			return nil, err
		}
		txs, err := uc.transactionRepo.ListByWallet(ctx, wallet.ID, limit, offset)
		if err != nil {
			return nil, err
		}
		return &PaymentHistory{Transactions: txs}, nil
	}
	return nil, apperror.ErrForbidden
}

type GetWalletUseCase struct {
	walletRepo repository.WalletRepository
}

func NewGetWalletUseCase(walletRepo repository.WalletRepository) *GetWalletUseCase {
	return &GetWalletUseCase{walletRepo: walletRepo}
}

// Execute возвращает кошелёк владельца. Кошелёк создаётся при первом зачислении,
// до этого ответ NOT_FOUND.
func (uc *GetWalletUseCase) Execute(ctx context.Context, actor valueobject.Actor, ownerID uuid.UUID) (*entity.Wallet, error) {
	if !actor.IsAdmin() && actor.ID != ownerID {
		return nil, apperror.ErrForbidden
	}
	return uc.walletRepo.FindByOwner(ctx, ownerID)
}

type ListTransactionsUseCase struct {
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
}

func NewListTransactionsUseCase(walletRepo repository.WalletRepository, transactionRepo repository.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{walletRepo: walletRepo, transactionRepo: transactionRepo}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	wallet, err := uc.walletRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return uc.transactionRepo.ListByWallet(ctx, wallet.ID, limit, offset)
}
