package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freight-backend/internal/interface/http/dto"
	"github.com/ignatzorin/freight-backend/internal/interface/http/response"
	"github.com/ignatzorin/freight-backend/internal/usecase/withdrawal"
)

type WithdrawalHandler struct {
	requestUC *withdrawal.RequestWithdrawalUseCase
	resolveUC *withdrawal.ResolveWithdrawalUseCase
	listUC    *withdrawal.ListWithdrawalsUseCase
}

func NewWithdrawalHandler(
	requestUC *withdrawal.RequestWithdrawalUseCase,
	resolveUC *withdrawal.ResolveWithdrawalUseCase,
	listUC *withdrawal.ListWithdrawalsUseCase,
) *WithdrawalHandler {
	return &WithdrawalHandler{requestUC: requestUC, resolveUC: resolveUC, listUC: listUC}
}

// Request обрабатывает POST /api/withdrawals.
func (h *WithdrawalHandler) Request(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите положительную сумму и счёт для вывода")
		return
	}

	created, err := h.requestUC.Execute(c.Request.Context(), withdrawal.RequestWithdrawalInput{
		Actor:         actor,
		WalletID:      req.WalletID,
		Amount:        req.Amount,
		BankAccountID: req.BankAccountID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToWithdrawalResponse(created))
}

// ListMine обрабатывает GET /api/withdrawals.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	items, err := h.listUC.ForOwner(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToWithdrawalListResponse(items), len(items), limit, offset)
}

// AdminList обрабатывает GET /api/admin/withdrawals?status=&wallet_id=.
func (h *WithdrawalHandler) AdminList(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	walletID, err := queryUUID(c, "wallet_id")
	if err != nil {
		response.BadRequest(c, "некорректный wallet_id")
		return
	}
	limit, offset := pagination(c)

	items, err := h.listUC.AdminList(c.Request.Context(), withdrawal.AdminListInput{
		Actor:    actor,
		Status:   c.Query("status"),
		WalletID: walletID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToWithdrawalListResponse(items), len(items), limit, offset)
}

// Approve обрабатывает POST /api/admin/withdrawals/:id/approve.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "id", "некорректный ID заявки на вывод")
	if !ok {
		return
	}

	resolved, err := h.resolveUC.Approve(c.Request.Context(), requestID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWithdrawalResponse(resolved))
}

// Reject обрабатывает POST /api/admin/withdrawals/:id/reject.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "id", "некорректный ID заявки на вывод")
	if !ok {
		return
	}

	var req dto.RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите причину отказа")
		return
	}

	resolved, err := h.resolveUC.Reject(c.Request.Context(), requestID, req.Reason, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToWithdrawalResponse(resolved))
}
