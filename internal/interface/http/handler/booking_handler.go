package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freight-backend/internal/interface/http/dto"
	"github.com/ignatzorin/freight-backend/internal/interface/http/response"
	"github.com/ignatzorin/freight-backend/internal/usecase/booking"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
)

type BookingHandler struct {
	createUC     *booking.CreateBookingUseCase
	getUC        *booking.GetBookingUseCase
	listUC       *booking.ListBookingsUseCase
	listOpenUC   *booking.ListOpenBookingsUseCase
	transitionUC *booking.TransitionBookingUseCase
	settlementUC *ledger.GetSettlementUseCase
}

func NewBookingHandler(
	createUC *booking.CreateBookingUseCase,
	getUC *booking.GetBookingUseCase,
	listUC *booking.ListBookingsUseCase,
	listOpenUC *booking.ListOpenBookingsUseCase,
	transitionUC *booking.TransitionBookingUseCase,
	settlementUC *ledger.GetSettlementUseCase,
) *BookingHandler {
	return &BookingHandler{
		createUC:     createUC,
		getUC:        getUC,
		listUC:       listUC,
		listOpenUC:   listOpenUC,
		transitionUC: transitionUC,
		settlementUC: settlementUC,
	}
}

// Create обрабатывает POST /api/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	input := booking.CreateBookingInput{
		Actor:    actor,
		Cargo:    req.Cargo,
		Pickup:   req.Pickup,
		Delivery: req.Delivery,
	}
	if req.ShipperID != nil {
		input.ShipperID = *req.ShipperID
	}

	created, err := h.createUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToBookingResponse(created))
}

// List обрабатывает GET /api/bookings.
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	bookings, err := h.listUC.Execute(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToBookingListResponse(bookings), len(bookings), limit, offset)
}

// ListOpen обрабатывает GET /api/bookings/open.
func (h *BookingHandler) ListOpen(c *gin.Context) {
	limit, offset := pagination(c)

	bookings, err := h.listOpenUC.Execute(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToBookingListResponse(bookings), len(bookings), limit, offset)
}

// Get обрабатывает GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	found, err := h.getUC.Execute(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBookingResponse(found))
}

// UpdateStatus обрабатывает PUT /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	var req dto.TransitionBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите целевой статус")
		return
	}

	updated, err := h.transitionUC.Execute(c.Request.Context(), bookingID, req.Status, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBookingResponse(updated))
}

// Settlement обрабатывает GET /api/bookings/:id/settlement.
func (h *BookingHandler) Settlement(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	settlement, err := h.settlementUC.Execute(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToSettlementResponse(settlement))
}
