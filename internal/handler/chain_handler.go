package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/propdao/internal/chain"
	"github.com/blues/propdao/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChainHandler struct {
	chain           ChainClient
	chainEventLogic *logic.ChainEventLogic
}

func NewChainHandler(db *gorm.DB, chainClient ChainClient) *ChainHandler {
	return &ChainHandler{
		chain:           chainClient,
		chainEventLogic: logic.NewChainEventLogic(db),
	}
}

// GetStatus 获取链客户端状态
func (h *ChainHandler) GetStatus(c *gin.Context) {
	if h.chain == nil {
		HandleError(c, chain.ErrNotConfigured)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取链状态成功", h.chain.HealthStatus(c.Request.Context()))
}

// GetEvents 获取已索引的链上事件
func (h *ChainHandler) GetEvents(c *gin.Context) {
	role := c.Query("role")
	if role != "" {
		parsed, err := chain.ParseRole(role)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, CodeValidation, "无效的合约角色")
			return
		}
		role = parsed.String()
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	events, total, err := h.chainEventLogic.ListEvents(c.Request.Context(), role, c.Query("event"), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取链上事件成功", newPageResult(events, page, pageSize, total))
}
