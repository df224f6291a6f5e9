package handler

import (
	"net/http"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvestmentHandler struct {
	investmentLogic *logic.InvestmentLogic
}

func NewInvestmentHandler(db *gorm.DB, unitPrice decimal.Decimal) *InvestmentHandler {
	return &InvestmentHandler{
		investmentLogic: logic.NewInvestmentLogic(db, unitPrice),
	}
}

// CreateInvestment 记录调用方的链下投资
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	var req CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	claims, _ := auth.CurrentClaims(c)

	investment, err := h.investmentLogic.CreateInvestment(c.Request.Context(), claims.Subject, req.PropertyId, req.Amount)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "投资记录创建成功", investment)
}

// GetMyInvestments 获取调用方的投资记录
func (h *InvestmentHandler) GetMyInvestments(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)

	investments, err := h.investmentLogic.ListUserInvestments(c.Request.Context(), claims.Subject)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取投资记录成功", investments)
}
