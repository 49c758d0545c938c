package booking

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

// EscrowReleaser выпускает заработок перевозчика по завершённой заявке.
type EscrowReleaser interface {
	Execute(ctx context.Context, bookingID uuid.UUID) (*ledger.ReleaseResult, error)
}

type TransitionBookingUseCase struct {
	bookingRepo repository.BookingRepository
	locker      keylock.Locker
	releaser    EscrowReleaser
	publisher   event.Publisher
}

func NewTransitionBookingUseCase(bookingRepo repository.BookingRepository, locker keylock.Locker, releaser EscrowReleaser, publisher event.Publisher) *TransitionBookingUseCase {
	return &TransitionBookingUseCase{
		bookingRepo: bookingRepo,
		locker:      locker,
		releaser:    releaser,
		publisher:   event.OrNop(publisher),
	}
}

// Execute меняет статус заявки по таблице переходов. Переход выполняется под блокировкой
// заявки, той же, что держит оплата на время списания. Сохранение условное:
// если статус успел измениться в другой реплике, возвращается CONFLICT.
func (uc *TransitionBookingUseCase) Execute(ctx context.Context, bookingID uuid.UUID, target string, actor valueobject.Actor) (*entity.Booking, error) {
	status, err := valueobject.NewBookingStatus(target)
	if err != nil {
		return nil, err
	}

	booking, prior, err := uc.transition(ctx, bookingID, status, actor)
	if err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(string(status))
	log := logger.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       prior,
		"to":         status,
		"actor_role": actor.Role,
	})
	log.Info("booking: статус изменён")

	uc.notify(booking)

	if status == valueobject.BookingStatusCompleted && uc.releaser != nil {
		// Переход уже зафиксирован. Если выпуск средств не удался, его повторяет администратор.
		if _, err := uc.releaser.Execute(ctx, booking.ID); err != nil {
			log.WithError(err).Error("booking: не удалось выпустить средства перевозчику")
		}
	}

	return booking, nil
}

func (uc *TransitionBookingUseCase) transition(ctx context.Context, bookingID uuid.UUID, status valueobject.BookingStatus, actor valueobject.Actor) (*entity.Booking, valueobject.BookingStatus, error) {
	unlock, err := uc.locker.Lock(ctx, keylock.BookingKey(bookingID))
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeConflict, "не удалось заблокировать заявку")
	}
	defer unlock()

	booking, err := uc.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	prior := booking.Status
	if err := booking.Transition(status, actor); err != nil {
		return nil, "", err
	}

	swapped, err := uc.bookingRepo.CompareAndSwap(ctx, booking, prior)
	if err != nil {
		return nil, "", err
	}
	if !swapped {
		return nil, "", apperror.New(apperror.ErrCodeConflict, "статус заявки изменился параллельно, обновите данные")
	}
	return booking, prior, nil
}

func (uc *TransitionBookingUseCase) notify(booking *entity.Booking) {
	payload := map[string]any{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}
	uc.publisher.Publish(booking.ShipperID, event.BookingStatusChanged, payload)
	if booking.CarrierID != nil {
		uc.publisher.Publish(*booking.CarrierID, event.BookingStatusChanged, payload)
	}
}
