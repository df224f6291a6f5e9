package handler

import (
	"github.com/blues/propdao/internal/model"
	"github.com/shopspring/decimal"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// PageResult 分页列表响应
type PageResult struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

func newPageResult(items interface{}, page, pageSize int, total int64) PageResult {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return PageResult{
		Items: items,
		Pagination: Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	}
}

// 房产相关请求模型

// CreatePropertyRequest 创建房产请求
type CreatePropertyRequest struct {
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	Valuation       decimal.Decimal `json:"valuation"`
	TargetRaise     decimal.Decimal `json:"targetRaise"`
	MinInvestment   decimal.Decimal `json:"minInvestment"`
	Category        string          `json:"category"`
	Images          []string        `json:"images"`
	Documents       []string        `json:"documents"`
	TokenId         *int64          `json:"tokenId"`
	ContractAddress *string         `json:"contractAddress"`
}

// UpdatePropertyRequest 更新房产请求，只包含描述性字段
type UpdatePropertyRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	Location        *string   `json:"location"`
	Category        *string   `json:"category"`
	Images          *[]string `json:"images"`
	Documents       *[]string `json:"documents"`
	TokenId         *int64    `json:"tokenId"`
	ContractAddress *string   `json:"contractAddress"`
}

// OnchainSupplyResponse 链上供应量与链下已售对比，不做对账
type OnchainSupplyResponse struct {
	PropertyId  int64           `json:"propertyId"`
	TokenId     int64           `json:"tokenId"`
	TotalSupply string          `json:"totalSupply"`
	TokensSold  decimal.Decimal `json:"tokensSold"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// 投资相关请求模型

// CreateInvestmentRequest 创建投资请求
type CreateInvestmentRequest struct {
	PropertyId int64           `json:"propertyId" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// 治理相关请求模型

// CreateProposalRequest 创建提案请求
type CreateProposalRequest struct {
	Description     string               `json:"description"`
	PermissionType  model.PermissionType `json:"permissionType"`
	TargetTokenId   *int64               `json:"targetTokenId"`
	DurationSeconds int64                `json:"durationSeconds"`
}

// CastVoteRequest 投票请求
type CastVoteRequest struct {
	ProposalId int64 `json:"proposalId" binding:"required"`
	Support    *bool `json:"support" binding:"required"`
}

// 用户相关请求模型

// SetKycStatusRequest 更新KYC状态请求
type SetKycStatusRequest struct {
	KycStatus model.KycStatus `json:"kycStatus" binding:"required"`
}

// UploadResponse 上传响应
type UploadResponse struct {
	Url string `json:"url"`
}
