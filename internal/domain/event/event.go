// Package event: события, которые ядро отправляет затронутым пользователям.
package event

import "github.com/google/uuid"

const (
	BookingStatusChanged = "booking.status_changed"
	QuoteSubmitted       = "quote.submitted"
	QuoteAccepted        = "quote.accepted"
	QuoteRejected        = "quote.rejected"
	PaymentCaptured      = "payment.captured"
	EscrowReleased       = "escrow.released"
	WithdrawalResolved   = "withdrawal.resolved"
)

// Publisher доставляет событие пользователю. Доставка не гарантируется
// и не должна влиять на результат операции.
type Publisher interface {
	Publish(userID uuid.UUID, name string, data any)
}

// Nop: Publisher, который ничего не делает.
type Nop struct{}

func (Nop) Publish(uuid.UUID, string, any) {}

// OrNop возвращает p или Nop, если p == nil.
func OrNop(p Publisher) Publisher {
	if p == nil {
		return Nop{}
	}
	return p
}
