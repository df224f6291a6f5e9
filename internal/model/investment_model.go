package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentModel 链下投资记录
type InvestmentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserId        string          `json:"userId" gorm:"size:191;not null;index"`
	PropertyId    int64           `json:"propertyId" gorm:"not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	TokenQuantity decimal.Decimal `json:"tokenQuantity" gorm:"type:decimal(28,8);not null"`

	// 关联
	Property *PropertyModel `json:"property,omitempty" gorm:"foreignKey:PropertyId"`
}

// TableName 自定义表名
func (InvestmentModel) TableName() string {
	return "investment"
}
