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

type ProcessPaymentInput struct {
	BookingID uuid.UUID
	Method    string
	Reference string
	Actor     valueobject.Actor
}

type PaymentResult struct {
	Payment        *entity.Payment
	Settlement     valueobject.Settlement
	AlreadySettled bool
}

type ProcessPaymentUseCase struct {
	store     repository.Store
	locker    keylock.Locker
	gateway   repository.PaymentGateway
	publisher event.Publisher
}

func NewProcessPaymentUseCase(store repository.Store, locker keylock.Locker, gateway repository.PaymentGateway, publisher event.Publisher) *ProcessPaymentUseCase {
	return &ProcessPaymentUseCase{
		store:     store,
		locker:    locker,
		gateway:   gateway,
		publisher: event.OrNop(publisher),
	}
}

// Execute списывает оплату и раскладывает её по кошелькам. Повторный вызов
// для уже оплаченной заявки возвращает сохранённый расчёт без изменений.
func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, input ProcessPaymentInput) (*PaymentResult, error) {
	method, err := valueobject.NewPaymentMethod(input.Method)
	if err != nil {
		return nil, err
	}

	booking, err := uc.store.Bookings().FindByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin() && !(input.Actor.Is(valueobject.RoleShipper) && booking.IsOwnedBy(input.Actor.ID)) {
		return nil, apperror.ErrUnauthorized
	}

	if booking.CarrierID == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "оплатить можно только заявку с выбранным перевозчиком в статусе booked")
	}

	// Заявка блокируется на всё время списания, кошелёк перевозчика: на проводку заработка.
	unlock, err := keylock.LockAll(ctx, uc.locker, keylock.BookingKey(booking.ID), keylock.WalletKey(*booking.CarrierID))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось заблокировать заявку")
	}
	defer unlock()

	if settled, err := settledPayment(ctx, uc.store, booking.ID); err != nil || settled != nil {
		if settled != nil {
			metrics.IncLedgerOperation("payment", "duplicate")
		}
		return settled, err
	}

	// Перечитываем под блокировкой: статус мог измениться, пока ждали.
	booking, err = uc.store.Bookings().FindByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != valueobject.BookingStatusBooked || booking.Paid || booking.CarrierID == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "оплатить можно только заявку с выбранным перевозчиком в статусе booked")
	}

	settlement := valueobject.ComputeSettlement(booking.Price())
	payment, err := entity.NewPayment(booking, method, input.Reference, settlement)
	if err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"method":     method,
		"total":      settlement.Total.String(),
	})

	if err := uc.gateway.Capture(ctx, booking.ID, method, payment.Reference, settlement.Total); err != nil {
		metrics.IncLedgerOperation("payment", "declined")
		log.WithError(err).Warn("ledger: платёж отклонён")
		if apperror.Is(err, apperror.ErrCodePaymentFailed) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodePaymentFailed, "платёж отклонён платёжным провайдером")
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		platform, err := repos.Wallets().GetOrCreateForUpdate(ctx, entity.PlatformOwnerID)
		if err != nil {
			return err
		}
		carrier, err := repos.Wallets().GetOrCreateForUpdate(ctx, *booking.CarrierID)
		if err != nil {
			return err
		}

		// При цене в несколько центов комиссия округляется до нуля, нулевых записей в журнале не бывает.
		if settlement.PlatformFee > 0 {
			fee := entity.NewTransaction(platform.ID, valueobject.TransactionTypePlatformFee, settlement.PlatformFee, booking.ID)
			if err := Post(ctx, repos, platform, fee); err != nil {
				return err
			}
		}
		earning := entity.NewTransaction(carrier.ID, valueobject.TransactionTypeEarningPending, settlement.BookingAmount, booking.ID)
		if err := Post(ctx, repos, carrier, earning); err != nil {
			return err
		}

		if err := booking.MarkPaid(); err != nil {
			return err
		}
		swapped, err := repos.Bookings().CompareAndSwap(ctx, booking, valueobject.BookingStatusBooked)
		if err != nil {
			return err
		}
		if !swapped {
			return apperror.New(apperror.ErrCodeConflict, "статус заявки изменился во время оплаты")
		}
		return repos.Payments().Create(ctx, payment)
	})
	if err != nil {
		if apperror.IsDuplicate(err) {
			metrics.IncLedgerOperation("payment", "duplicate")
			return settledPayment(ctx, uc.store, booking.ID)
		}
		metrics.IncLedgerOperation("payment", "failed")
		// Деньги списаны, а проводка не записана: нужна ручная сверка.
		log.WithError(err).Error("ledger: платёж списан, но проводка не сохранена")
		return nil, err
	}

	metrics.IncLedgerOperation("payment", "success")
	metrics.AddLedgerVolume(string(valueobject.TransactionTypePlatformFee), settlement.PlatformFee.Int64())
	metrics.AddLedgerVolume(string(valueobject.TransactionTypeEarningPending), settlement.BookingAmount.Int64())
	log.Info("ledger: оплата проведена")

	uc.publisher.Publish(booking.ShipperID, event.PaymentCaptured, map[string]any{
		"booking_id": booking.ID,
		"total":      settlement.Total,
	})
	uc.publisher.Publish(*booking.CarrierID, event.BookingStatusChanged, map[string]any{
		"booking_id": booking.ID,
		"status":     booking.Status,
	})

	return &PaymentResult{Payment: payment, Settlement: settlement}, nil
}

// settledPayment возвращает уже проведённую оплату или nil, если её ещё не было.
func settledPayment(ctx context.Context, repos repository.Repositories, bookingID uuid.UUID) (*PaymentResult, error) {
	earning, err := repos.Transactions().FindByReference(ctx, bookingID, valueobject.TransactionTypeEarningPending)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{
		Settlement:     valueobject.ComputeSettlement(earning.Amount),
		AlreadySettled: true,
	}
	payment, err := repos.Payments().FindByBooking(ctx, bookingID)
	switch {
	case err == nil:
		result.Payment = payment
		result.Settlement = payment.Settlement()
	case !apperror.IsNotFound(err):
		return nil, err
	}
	return result, nil
}
