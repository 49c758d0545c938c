package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/usecase/quote"
)

type SubmitQuoteRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0,lte=1000000000000"`
	Notes  string `json:"notes"`
}

type QuoteResponse struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	CarrierID uuid.UUID `json:"carrier_id"`
	Amount    int64     `json:"amount"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToQuoteResponse(q *entity.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		BookingID: q.BookingID,
		CarrierID: q.CarrierID,
		Amount:    q.Amount.Int64(),
		Notes:     q.Notes,
		Status:    string(q.Status),
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func ToQuoteListResponse(quotes []*entity.Quote) []QuoteResponse {
	result := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		result = append(result, ToQuoteResponse(q))
	}
	return result
}

type AcceptQuoteResponse struct {
	Booking  BookingResponse `json:"booking"`
	Quote    QuoteResponse   `json:"quote"`
	Rejected []QuoteResponse `json:"rejected"`
}

func ToAcceptQuoteResponse(r *quote.AcceptQuoteResult) AcceptQuoteResponse {
	return AcceptQuoteResponse{
		Booking:  ToBookingResponse(r.Booking),
		Quote:    ToQuoteResponse(r.Quote),
		Rejected: ToQuoteListResponse(r.Rejected),
	}
}
