package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// Booking: заявка грузоотправителя на перевозку.
// Груз и адреса для ядра непрозрачны и хранятся как JSON.
type Booking struct {
	ID              uuid.UUID
	ShipperID       uuid.UUID
	Cargo           json.RawMessage
	Pickup          json.RawMessage
	Delivery        json.RawMessage
	Status          valueobject.BookingStatus
	CarrierID       *uuid.UUID
	AgreedPrice     *valueobject.Money
	Paid            bool
	CompletedAt     *time.Time
	StatusChangedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewBooking(shipperID uuid.UUID, cargo, pickup, delivery json.RawMessage) (*Booking, error) {
	if shipperID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указан грузоотправитель")
	}
	if !isJSONObject(cargo) {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание груза обязательно")
	}
	if !isJSONObject(pickup) {
		return nil, apperror.New(apperror.ErrCodeValidation, "адрес погрузки обязателен")
	}
	if !isJSONObject(delivery) {
		return nil, apperror.New(apperror.ErrCodeValidation, "адрес доставки обязателен")
	}

	now := time.Now().UTC()
	return &Booking{
		ID:              uuid.New(),
		ShipperID:       shipperID,
		Cargo:           cargo,
		Pickup:          pickup,
		Delivery:        delivery,
		Status:          valueobject.BookingStatusPendingQuote,
		StatusChangedAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Transition проверяет таблицу переходов и права актора, затем меняет статус.
func (b *Booking) Transition(target valueobject.BookingStatus, actor valueobject.Actor) error {
	if !target.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректный статус заявки")
	}
	if b.Status.IsTerminal() {
		return apperror.New(apperror.ErrCodeInvalidTransition, "заявка в статусе "+string(b.Status)+" закрыта")
	}
	if !b.Status.CanTransitionTo(target) {
		return apperror.New(apperror.ErrCodeInvalidTransition,
			"переход из статуса "+string(b.Status)+" в "+string(target)+" недопустим")
	}
	if !b.canBeMovedBy(target, actor) {
		return apperror.ErrUnauthorized
	}

	b.setStatus(target)
	if target == valueobject.BookingStatusCompleted {
		completedAt := b.StatusChangedAt
		b.CompletedAt = &completedAt
	}
	return nil
}

// canBeMovedBy: кто может выполнить переход в target.
func (b *Booking) canBeMovedBy(target valueobject.BookingStatus, actor valueobject.Actor) bool {
	switch target {
	case valueobject.BookingStatusQuoted, valueobject.BookingStatusBooked, valueobject.BookingStatusPaid:
		return actor.Is(valueobject.RoleSystem)
	case valueobject.BookingStatusInTransit, valueobject.BookingStatusDelivered, valueobject.BookingStatusCompleted:
		return actor.IsAdmin() || actor.Is(valueobject.RoleDriver) ||
			(actor.Is(valueobject.RoleCarrier) && b.IsCarriedBy(actor.ID))
	case valueobject.BookingStatusCancelled:
		return actor.IsAdmin() || (actor.Is(valueobject.RoleShipper) && b.IsOwnedBy(actor.ID))
	}
	return false
}

// Match фиксирует победившее предложение: перевозчик и согласованная цена.
func (b *Booking) Match(carrierID uuid.UUID, price valueobject.Money) error {
	if !b.Status.IsOpenForQuotes() {
		return apperror.ErrAlreadyMatched
	}
	if err := b.Transition(valueobject.BookingStatusBooked, valueobject.SystemActor); err != nil {
		return err
	}
	b.CarrierID = &carrierID
	b.AgreedPrice = &price
	return nil
}

// MarkPaid отмечает успешную оплату и переводит заявку в paid.
func (b *Booking) MarkPaid() error {
	if b.Paid {
		return apperror.New(apperror.ErrCodeInvalidState, "заявка уже оплачена")
	}
	if err := b.Transition(valueobject.BookingStatusPaid, valueobject.SystemActor); err != nil {
		return apperror.New(apperror.ErrCodeInvalidState, "оплатить можно только заявку в статусе booked")
	}
	b.Paid = true
	return nil
}

func (b *Booking) setStatus(status valueobject.BookingStatus) {
	now := time.Now().UTC()
	b.Status = status
	b.StatusChangedAt = now
	b.UpdatedAt = now
}

func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.ShipperID == userID
}

func (b *Booking) IsCarriedBy(userID uuid.UUID) bool {
	return b.CarrierID != nil && *b.CarrierID == userID
}

// Price возвращает согласованную цену или ноль, если перевозчик ещё не выбран.
func (b *Booking) Price() valueobject.Money {
	if b.AgreedPrice == nil {
		return 0
	}
	return *b.AgreedPrice
}

// VisibleTo: может ли актор видеть заявку.
func (b *Booking) VisibleTo(actor valueobject.Actor) bool {
	switch actor.Role {
	case valueobject.RoleAdmin, valueobject.RoleSystem:
		return true
	case valueobject.RoleShipper:
		return b.IsOwnedBy(actor.ID)
	case valueobject.RoleCarrier:
		return b.IsCarriedBy(actor.ID) || b.Status.IsOpenForQuotes()
	case valueobject.RoleDriver:
		return b.Status == valueobject.BookingStatusPaid ||
			b.Status == valueobject.BookingStatusInTransit ||
			b.Status == valueobject.BookingStatusDelivered
	}
	return false
}

func isJSONObject(raw json.RawMessage) bool {
	if len(raw) == 0 || !json.Valid(raw) {
		return false
	}
	var v map[string]any
	return json.Unmarshal(raw, &v) == nil && len(v) > 0
}
