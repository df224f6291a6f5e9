package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/propdao/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultUnitPrice 链下记账使用的固定代币单价
//
// 该单价与链上市场按估值计算的每份价格不一致，两者有意不做对账。
var DefaultUnitPrice = decimal.NewFromInt(100)

// InvestmentLogic 投资业务逻辑
type InvestmentLogic struct {
	db        *gorm.DB
	unitPrice decimal.Decimal
}

// NewInvestmentLogic 创建投资业务逻辑，unitPrice 非正数时使用默认单价
func NewInvestmentLogic(db *gorm.DB, unitPrice decimal.Decimal) *InvestmentLogic {
	if !unitPrice.IsPositive() {
		unitPrice = DefaultUnitPrice
	}
	return &InvestmentLogic{db: db, unitPrice: unitPrice}
}

// UnitPrice 当前单价
func (i *InvestmentLogic) UnitPrice() decimal.Decimal {
	return i.unitPrice
}

// CreateInvestment 记录一笔链下投资，不触发任何链上操作
func (i *InvestmentLogic) CreateInvestment(ctx context.Context, userId string, propertyId int64, amount decimal.Decimal) (*model.InvestmentModel, error) {
	if userId == "" {
		return nil, invalid("用户ID不能为空")
	}
	if !amount.IsPositive() {
		return nil, invalid("投资金额必须大于0")
	}

	// 检查房产是否存在
	var property model.PropertyModel
	if err := i.db.WithContext(ctx).First(&property, propertyId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("获取房产失败: %w", err)
	}

	investment := &model.InvestmentModel{
		UserId:        userId,
		PropertyId:    propertyId,
		Amount:        amount,
		TokenQuantity: i.TokenQuantity(amount),
	}

	if err := i.db.WithContext(ctx).Create(investment).Error; err != nil {
		return nil, fmt.Errorf("创建投资记录失败: %w", err)
	}

	investment.Property = &property
	return investment, nil
}

// TokenQuantity 按固定单价换算代币数量
func (i *InvestmentLogic) TokenQuantity(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(i.unitPrice)
}

// ListUserInvestments 获取用户的投资记录及房产信息
func (i *InvestmentLogic) ListUserInvestments(ctx context.Context, userId string) ([]model.InvestmentModel, error) {
	var investments []model.InvestmentModel
	if err := i.db.WithContext(ctx).
		Preload("Property").
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("获取投资记录失败: %w", err)
	}
	return investments, nil
}

// TokensSold 统计各房产链下已售代币数，没有投资的房产为0
func (i *InvestmentLogic) TokensSold(ctx context.Context, propertyIds ...int64) (map[int64]decimal.Decimal, error) {
	return tokensSold(ctx, i.db, propertyIds)
}

// tokensSold 在内存中用 decimal 求和，避免不同数据库 SUM 的精度差异
func tokensSold(ctx context.Context, db *gorm.DB, propertyIds []int64) (map[int64]decimal.Decimal, error) {
	result := make(map[int64]decimal.Decimal, len(propertyIds))
	for _, id := range propertyIds {
		result[id] = decimal.Zero
	}
	if len(propertyIds) == 0 {
		return result, nil
	}

	var rows []model.InvestmentModel
	if err := db.WithContext(ctx).
		Select("property_id", "token_quantity").
		Where("property_id IN ?", propertyIds).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("统计已售代币失败: %w", err)
	}

	for _, row := range rows {
		result[row.PropertyId] = result[row.PropertyId].Add(row.TokenQuantity)
	}
	return result, nil
}
