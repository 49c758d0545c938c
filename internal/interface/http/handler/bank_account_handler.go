package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freight-backend/internal/interface/http/dto"
	"github.com/ignatzorin/freight-backend/internal/interface/http/response"
	"github.com/ignatzorin/freight-backend/internal/usecase/bankaccount"
)

type BankAccountHandler struct {
	addUC  *bankaccount.AddBankAccountUseCase
	listUC *bankaccount.ListBankAccountsUseCase
}

func NewBankAccountHandler(addUC *bankaccount.AddBankAccountUseCase, listUC *bankaccount.ListBankAccountsUseCase) *BankAccountHandler {
	return &BankAccountHandler{addUC: addUC, listUC: listUC}
}

// Add обрабатывает POST /api/bank-accounts.
func (h *BankAccountHandler) Add(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req dto.AddBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные счёта")
		return
	}

	account, err := h.addUC.Execute(c.Request.Context(), bankaccount.AddBankAccountInput{
		Actor:         actor,
		HolderName:    req.HolderName,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		IsPrimary:     req.IsPrimary,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToBankAccountResponse(account))
}

// List обрабатывает GET /api/bank-accounts.
func (h *BankAccountHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	accounts, err := h.listUC.Execute(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToBankAccountListResponse(accounts))
}
