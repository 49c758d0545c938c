package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
)

// Суммы во всех ответах и запросах: в центах.

type CreateBookingRequest struct {
	Cargo    json.RawMessage `json:"cargo" binding:"required"`
	Pickup   json.RawMessage `json:"pickup" binding:"required"`
	Delivery json.RawMessage `json:"delivery" binding:"required"`
	// ShipperID учитывается только для администратора.
	ShipperID *uuid.UUID `json:"shipper_id"`
}

type TransitionBookingRequest struct {
	Status string `json:"status" binding:"required"`
}

type BookingResponse struct {
	ID              uuid.UUID       `json:"id"`
	ShipperID       uuid.UUID       `json:"shipper_id"`
	CarrierID       *uuid.UUID      `json:"carrier_id"`
	Status          string          `json:"status"`
	Cargo           json.RawMessage `json:"cargo"`
	Pickup          json.RawMessage `json:"pickup"`
	Delivery        json.RawMessage `json:"delivery"`
	AgreedPrice     *int64          `json:"agreed_price"`
	Paid            bool            `json:"paid"`
	CompletedAt     *time.Time      `json:"completed_at"`
	StatusChangedAt time.Time       `json:"status_changed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func ToBookingResponse(b *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		ShipperID:       b.ShipperID,
		CarrierID:       b.CarrierID,
		Status:          string(b.Status),
		Cargo:           b.Cargo,
		Pickup:          b.Pickup,
		Delivery:        b.Delivery,
		Paid:            b.Paid,
		CompletedAt:     b.CompletedAt,
		StatusChangedAt: b.StatusChangedAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.AgreedPrice != nil {
		price := b.AgreedPrice.Int64()
		resp.AgreedPrice = &price
	}
	return resp
}

func ToBookingListResponse(bookings []*entity.Booking) []BookingResponse {
	result := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, ToBookingResponse(b))
	}
	return result
}

type SettlementResponse struct {
	BookingAmount  int64 `json:"booking_amount"`
	PlatformFee    int64 `json:"platform_fee"`
	Total          int64 `json:"total"`
	FeeBasisPoints int64 `json:"fee_basis_points"`
}

func ToSettlementResponse(s valueobject.Settlement) SettlementResponse {
	return SettlementResponse{
		BookingAmount:  s.BookingAmount.Int64(),
		PlatformFee:    s.PlatformFee.Int64(),
		Total:          s.Total.Int64(),
		FeeBasisPoints: valueobject.PlatformFeeBasisPoints,
	}
}
