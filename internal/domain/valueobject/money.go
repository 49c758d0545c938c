package valueobject

import (
	"fmt"

	"github.com/ignatzorin/freight-backend/internal/pkg/apperror"
)

// PlatformFeeBasisPoints: комиссия площадки, 15% сверх цены перевозчика.
const PlatformFeeBasisPoints int64 = 1500

const basisPointsScale int64 = 10000

// Money: сумма в минимальных единицах валюты (центах).
type Money int64

// MaxAmount: верхняя граница одной суммы, 10 млрд единиц валюты.
// С запасом исключает переполнение int64 при расчёте комиссии и итога.
const MaxAmount Money = 1_000_000_000_000

// NewPositiveMoney проверяет, что сумма больше нуля и не превышает MaxAmount.
func NewPositiveMoney(amount int64) (Money, error) {
	if amount <= 0 || Money(amount) > MaxAmount {
		return 0, apperror.ErrInvalidAmount
	}
	return Money(amount), nil
}

func (m Money) Int64() int64 {
	return int64(m)
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Percent считает долю в базисных пунктах с округлением половины вверх.
func (m Money) Percent(basisPoints int64) Money {
	return Money((int64(m)*basisPoints + basisPointsScale/2) / basisPointsScale)
}

// Settlement: разбиение платежа грузоотправителя.
type Settlement struct {
	BookingAmount Money `json:"booking_amount"`
	PlatformFee   Money `json:"platform_fee"`
	Total         Money `json:"total"`
}

// ComputeSettlement возвращает сумму перевозчику, комиссию и итог к оплате.
func ComputeSettlement(agreedPrice Money) Settlement {
	fee := agreedPrice.Percent(PlatformFeeBasisPoints)
	return Settlement{
		BookingAmount: agreedPrice,
		PlatformFee:   fee,
		Total:         agreedPrice + fee,
	}
}
