// Package payment: списание средств с грузоотправителя.
// Реальные провайдеры карт и PayPal подключаются как repository.PaymentGateway.
package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// Capture: данные одного списания.
type Capture struct {
	BookingID uuid.UUID
	Method    valueobject.PaymentMethod
	Reference string
	Amount    valueobject.Money
}

// SandboxGateway принимает любые платежи, кроме тех, чей идентификатор
// начинается с declinePrefix. Используется в development и тестах.
type SandboxGateway struct {
	declinePrefix string

	mu       sync.Mutex
	captured []Capture
}

func NewSandboxGateway(declinePrefix string) *SandboxGateway {
	return &SandboxGateway{declinePrefix: declinePrefix}
}

func (g *SandboxGateway) Capture(ctx context.Context, bookingID uuid.UUID, method valueobject.PaymentMethod, reference string, amount valueobject.Money) error {
	capture := Capture{BookingID: bookingID, Method: method, Reference: reference, Amount: amount}
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodePaymentFailed, "списание прервано")
	}
	if g.declinePrefix != "" && strings.HasPrefix(capture.Reference, g.declinePrefix) {
		return apperror.ErrPaymentFailed
	}

	g.mu.Lock()
	g.captured = append(g.captured, capture)
	g.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{
		"booking_id": capture.BookingID,
		"method":     capture.Method,
		"amount":     capture.Amount.String(),
	}).Info("sandbox: платёж списан")
	return nil
}

// Captured возвращает все успешные списания.
func (g *SandboxGateway) Captured() []Capture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Capture(nil), g.captured...)
}
