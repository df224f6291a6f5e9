package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DefaultPropertyCategory 未指定分类时的默认值
const DefaultPropertyCategory = "Residential"

// PropertyModel 房产
type PropertyModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 基本信息
	Name        string `json:"name" gorm:"not null"`
	Location    string `json:"location"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"size:64;index"`

	// 金额信息
	Valuation     decimal.Decimal `json:"valuation" gorm:"type:decimal(20,2);not null"`
	TargetRaise   decimal.Decimal `json:"targetRaise" gorm:"type:decimal(20,2);not null"`
	MinInvestment decimal.Decimal `json:"minInvestment" gorm:"type:decimal(20,2);not null;default:0"`

	// 图片与文档引用
	Images    datatypes.JSONSlice[string] `json:"images"`
	Documents datatypes.JSONSlice[string] `json:"documents"`

	// 区块链信息，来自链上注册结果，不做校验
	TokenId         *int64  `json:"tokenId"`
	ContractAddress *string `json:"contractAddress"`

	// 创建者
	CreatorId string `json:"creatorId"`
}

// TableName 自定义表名
func (PropertyModel) TableName() string {
	return "property"
}
