package handler

import (
	"net/http"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	userLogic *logic.UserLogic
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		userLogic: logic.NewUserLogic(db),
	}
}

// SyncUser 按身份令牌创建或刷新调用方
func (h *UserHandler) SyncUser(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)

	user, err := h.userLogic.SyncUser(c.Request.Context(), claims.Subject, claims.Email, claims.WalletAddress)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "用户同步成功", user)
}

// GetMe 获取调用方信息
func (h *UserHandler) GetMe(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)

	user, err := h.userLogic.GetUser(c.Request.Context(), claims.Subject)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取用户信息成功", user)
}

// SetKycStatus 更新用户KYC状态
func (h *UserHandler) SetKycStatus(c *gin.Context) {
	var req SetKycStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userLogic.SetKycStatus(c.Request.Context(), c.Param("id"), req.KycStatus)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "KYC状态更新成功", user)
}
