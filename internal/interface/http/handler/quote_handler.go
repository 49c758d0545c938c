package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freight-backend/internal/interface/http/dto"
	"github.com/ignatzorin/freight-backend/internal/interface/http/response"
	"github.com/ignatzorin/freight-backend/internal/usecase/quote"
)

type QuoteHandler struct {
	submitUC *quote.SubmitQuoteUseCase
	acceptUC *quote.AcceptQuoteUseCase
	listUC   *quote.ListQuotesUseCase
}

func NewQuoteHandler(submitUC *quote.SubmitQuoteUseCase, acceptUC *quote.AcceptQuoteUseCase, listUC *quote.ListQuotesUseCase) *QuoteHandler {
	return &QuoteHandler{submitUC: submitUC, acceptUC: acceptUC, listUC: listUC}
}

// Submit обрабатывает POST /api/bookings/:id/quotes.
func (h *QuoteHandler) Submit(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	var req dto.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "сумма предложения должна быть положительной")
		return
	}

	created, err := h.submitUC.Execute(c.Request.Context(), quote.SubmitQuoteInput{
		BookingID: bookingID,
		Actor:     actor,
		Amount:    req.Amount,
		Notes:     req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToQuoteResponse(created))
}

// List обрабатывает GET /api/quotes?booking_id=&carrier_id=&status=.
func (h *QuoteHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, err := queryUUID(c, "booking_id")
	if err != nil {
		response.BadRequest(c, "некорректный booking_id")
		return
	}
	carrierID, err := queryUUID(c, "carrier_id")
	if err != nil {
		response.BadRequest(c, "некорректный carrier_id")
		return
	}
	limit, offset := pagination(c)

	quotes, err := h.listUC.Execute(c.Request.Context(), quote.ListQuotesInput{
		Actor:     actor,
		BookingID: bookingID,
		CarrierID: carrierID,
		Status:    c.Query("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToQuoteListResponse(quotes), len(quotes), limit, offset)
}

// Accept обрабатывает POST /api/admin/quotes/:id/accept.
func (h *QuoteHandler) Accept(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	quoteID, ok := pathUUID(c, "id", "некорректный ID предложения")
	if !ok {
		return
	}

	result, err := h.acceptUC.Execute(c.Request.Context(), quoteID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAcceptQuoteResponse(result))
}
