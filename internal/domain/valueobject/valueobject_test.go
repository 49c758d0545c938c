package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to valueobject.BookingStatus
		allowed  bool
	}{
		{valueobject.BookingStatusPendingQuote, valueobject.BookingStatusQuoted, true},
		{valueobject.BookingStatusPendingQuote, valueobject.BookingStatusBooked, true},
		{valueobject.BookingStatusQuoted, valueobject.BookingStatusBooked, true},
		{valueobject.BookingStatusBooked, valueobject.BookingStatusPaid, true},
		{valueobject.BookingStatusPaid, valueobject.BookingStatusInTransit, true},
		{valueobject.BookingStatusInTransit, valueobject.BookingStatusDelivered, true},
		{valueobject.BookingStatusDelivered, valueobject.BookingStatusCompleted, true},
		{valueobject.BookingStatusBooked, valueobject.BookingStatusCancelled, true},
		{valueobject.BookingStatusPaid, valueobject.BookingStatusDelivered, false},
		{valueobject.BookingStatusPaid, valueobject.BookingStatusCancelled, false},
		{valueobject.BookingStatusInTransit, valueobject.BookingStatusCancelled, false},
		{valueobject.BookingStatusDelivered, valueobject.BookingStatusCancelled, false},
		{valueobject.BookingStatusCompleted, valueobject.BookingStatusCancelled, false},
		{valueobject.BookingStatusCancelled, valueobject.BookingStatusPendingQuote, false},
		{valueobject.BookingStatusQuoted, valueobject.BookingStatusPendingQuote, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewBookingStatus_Invalid(t *testing.T) {
	_, err := valueobject.NewBookingStatus("lost")
	assert.True(t, apperror.IsValidation(err))
}

func TestComputeSettlement(t *testing.T) {
	s := valueobject.ComputeSettlement(1_000_000)

	assert.Equal(t, valueobject.Money(1_000_000), s.BookingAmount)
	assert.Equal(t, valueobject.Money(150_000), s.PlatformFee)
	assert.Equal(t, valueobject.Money(1_150_000), s.Total)
}

func TestComputeSettlement_RoundsHalfUp(t *testing.T) {
	// 0.15 * 10 центов = 1.5 -> 2
	assert.Equal(t, valueobject.Money(2), valueobject.ComputeSettlement(10).PlatformFee)
	// 0.15 * 3 цента = 0.45 -> 0
	assert.Equal(t, valueobject.Money(0), valueobject.ComputeSettlement(3).PlatformFee)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "10000.00", valueobject.Money(1_000_000).String())
	assert.Equal(t, "-0.05", valueobject.Money(-5).String())
}

func TestNewPositiveMoney(t *testing.T) {
	_, err := valueobject.NewPositiveMoney(0)
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInvalidAmount, apperror.CodeOf(err))

	m, err := valueobject.NewPositiveMoney(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.Int64())

	_, err = valueobject.NewPositiveMoney(valueobject.MaxAmount.Int64() + 1)
	assert.Equal(t, apperror.ErrCodeInvalidAmount, apperror.CodeOf(err))

	_, err = valueobject.NewPositiveMoney(7_000_000_000_000_000)
	assert.Equal(t, apperror.ErrCodeInvalidAmount, apperror.CodeOf(err))
}

func TestComputeSettlement_MaxAmountDoesNotOverflow(t *testing.T) {
	s := valueobject.ComputeSettlement(valueobject.MaxAmount)
	assert.Equal(t, valueobject.Money(150_000_000_000), s.PlatformFee)
	assert.Equal(t, valueobject.Money(1_150_000_000_000), s.Total)
}

func TestNewRole(t *testing.T) {
	r, err := valueobject.NewRole("carrier")
	require.NoError(t, err)
	assert.True(t, r.CanOwnWallet())

	_, err = valueobject.NewRole("system")
	assert.Error(t, err)
}
