package handler

import (
	"context"
	"math/big"
	"net/http"
	"strconv"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/chain"
	"github.com/blues/propdao/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChainClient 链上读写客户端，chain.Manager 满足该接口
type ChainClient interface {
	Call(ctx context.Context, role chain.Role, method string, args ...interface{}) ([]interface{}, error)
	HealthStatus(ctx context.Context) map[string]interface{}
}

type PropertyHandler struct {
	propertyLogic *logic.PropertyLogic
	unitPrice     decimal.Decimal
	chain         ChainClient
}

// NewPropertyHandler chainClient 为 nil 时链上查询返回 503
func NewPropertyHandler(db *gorm.DB, unitPrice decimal.Decimal, chainClient ChainClient) *PropertyHandler {
	return &PropertyHandler{
		propertyLogic: logic.NewPropertyLogic(db),
		unitPrice:     logic.NewInvestmentLogic(db, unitPrice).UnitPrice(),
		chain:         chainClient,
	}
}

// CreateProperty 创建房产
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	claims, _ := auth.CurrentClaims(c)

	// 调用logic层创建房产
	property, err := h.propertyLogic.CreateProperty(c.Request.Context(), claims.Subject, logic.PropertyInput{
		Name:            req.Name,
		Description:     req.Description,
		Location:        req.Location,
		Valuation:       req.Valuation,
		TargetRaise:     req.TargetRaise,
		MinInvestment:   req.MinInvestment,
		Category:        req.Category,
		Images:          req.Images,
		Documents:       req.Documents,
		TokenId:         req.TokenId,
		ContractAddress: req.ContractAddress,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "房产创建成功", property)
}

// GetProperties 获取房产列表
func (h *PropertyHandler) GetProperties(c *gin.Context) {
	category := c.Query("category")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	properties, total, err := h.propertyLogic.ListProperties(c.Request.Context(), category, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取房产列表成功", newPageResult(properties, page, pageSize, total))
}

// GetProperty 获取房产详情
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, ok := parseIdParam(c, "无效的房产ID")
	if !ok {
		return
	}

	property, err := h.propertyLogic.GetProperty(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取房产详情成功", property)
}

// UpdateProperty 更新房产描述信息
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	id, ok := parseIdParam(c, "无效的房产ID")
	if !ok {
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 更新字段
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Images != nil {
		updates["images"] = datatypes.JSONSlice[string](*req.Images)
	}
	if req.Documents != nil {
		updates["documents"] = datatypes.JSONSlice[string](*req.Documents)
	}
	if req.TokenId != nil {
		updates["token_id"] = *req.TokenId
	}
	if req.ContractAddress != nil {
		updates["contract_address"] = *req.ContractAddress
	}

	property, err := h.propertyLogic.UpdateProperty(c.Request.Context(), id, updates)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "房产更新成功", property)
}

// GetOnchainSupply 查询代币注册合约的 totalSupply，与链下已售代币并列返回
func (h *PropertyHandler) GetOnchainSupply(c *gin.Context) {
	id, ok := parseIdParam(c, "无效的房产ID")
	if !ok {
		return
	}

	if h.chain == nil {
		HandleError(c, chain.ErrNotConfigured)
		return
	}

	property, err := h.propertyLogic.GetProperty(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if property.TokenId == nil {
		ErrorResponse(c, http.StatusBadRequest, CodeValidation, "房产未关联链上代币")
		return
	}

	out, err := h.chain.Call(c.Request.Context(), chain.RoleTokenRegistry, "totalSupply", big.NewInt(*property.TokenId))
	if err != nil {
		HandleError(c, err)
		return
	}

	supply := "0"
	if len(out) > 0 {
		if v, ok := out[0].(*big.Int); ok && v != nil {
			supply = v.String()
		}
	}

	SuccessResponse(c, http.StatusOK, "获取链上供应量成功", OnchainSupplyResponse{
		PropertyId:  property.Id,
		TokenId:     *property.TokenId,
		TotalSupply: supply,
		TokensSold:  property.TokensSold,
		UnitPrice:   h.unitPrice,
	})
}

// parseIdParam 解析路径中的 id 参数
func parseIdParam(c *gin.Context, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, CodeValidation, message)
		return 0, false
	}
	return id, true
}
