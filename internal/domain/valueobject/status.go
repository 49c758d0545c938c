package valueobject

import "github.com/ignatzorin/freight-backend/internal/pkg/apperror"

type BookingStatus string

const (
	BookingStatusPendingQuote BookingStatus = "pending_quote"
	BookingStatusQuoted       BookingStatus = "quoted"
	BookingStatusBooked       BookingStatus = "booked"
	BookingStatusPaid         BookingStatus = "paid"
	BookingStatusInTransit    BookingStatus = "in_transit"
	BookingStatusDelivered    BookingStatus = "delivered"
	BookingStatusCompleted    BookingStatus = "completed"
	BookingStatusCancelled    BookingStatus = "cancelled"
)

// bookingTransitions: полная таблица допустимых переходов статуса заявки.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPendingQuote: {BookingStatusQuoted, BookingStatusBooked, BookingStatusCancelled},
	BookingStatusQuoted:       {BookingStatusBooked, BookingStatusCancelled},
	BookingStatusBooked:       {BookingStatusPaid, BookingStatusCancelled},
	BookingStatusPaid:         {BookingStatusInTransit},
	BookingStatusInTransit:    {BookingStatusDelivered},
	BookingStatusDelivered:    {BookingStatusCompleted},
	BookingStatusCompleted:    {},
	BookingStatusCancelled:    {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// IsOpenForQuotes сообщает, принимает ли заявка ставки перевозчиков.
func (s BookingStatus) IsOpenForQuotes() bool {
	return s == BookingStatusPendingQuote || s == BookingStatusQuoted
}

func (s BookingStatus) CanTransitionTo(newStatus BookingStatus) bool {
	for _, status := range bookingTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewBookingStatus(status string) (BookingStatus, error) {
	s := BookingStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заявки")
	}
	return s, nil
}

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	}
	return false
}

func NewQuoteStatus(status string) (QuoteStatus, error) {
	s := QuoteStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус предложения")
	}
	return s, nil
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected,
		WithdrawalStatusCompleted, WithdrawalStatusFailed:
		return true
	}
	return false
}

func NewWithdrawalStatus(status string) (WithdrawalStatus, error) {
	s := WithdrawalStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус вывода")
	}
	return s, nil
}

type TransactionType string

const (
	TransactionTypePlatformFee         TransactionType = "platform_fee"
	TransactionTypeEarningPending      TransactionType = "earning_pending"
	TransactionTypeEarningRelease      TransactionType = "earning_release"
	TransactionTypeWithdrawalReserved  TransactionType = "withdrawal_reserved"
	TransactionTypeWithdrawalCompleted TransactionType = "withdrawal_completed"
	TransactionTypeWithdrawalReversed  TransactionType = "withdrawal_reversed"
)

// IsOncePerReference: типы, которые допускаются не более одного раза на ссылку (заявку).
func (t TransactionType) IsOncePerReference() bool {
	switch t {
	case TransactionTypePlatformFee, TransactionTypeEarningPending, TransactionTypeEarningRelease:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func NewPaymentMethod(method string) (PaymentMethod, error) {
	switch m := PaymentMethod(method); m {
	case PaymentMethodCard, PaymentMethodPayPal, PaymentMethodBankTransfer:
		return m, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "неподдерживаемый способ оплаты")
}
