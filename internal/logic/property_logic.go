package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blues/propdao/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PropertyLogic 房产业务逻辑
type PropertyLogic struct {
	db *gorm.DB
}

// NewPropertyLogic 创建房产业务逻辑
func NewPropertyLogic(db *gorm.DB) *PropertyLogic {
	return &PropertyLogic{db: db}
}

// PropertyInput 创建房产的输入
type PropertyInput struct {
	Name            string
	Description     string
	Location        string
	Valuation       decimal.Decimal
	TargetRaise     decimal.Decimal
	MinInvestment   decimal.Decimal
	Category        string
	Images          []string
	Documents       []string
	TokenId         *int64
	ContractAddress *string
}

// PropertyView 房产及链下已售代币数
type PropertyView struct {
	model.PropertyModel
	TokensSold decimal.Decimal `json:"tokensSold"`
}

// CreateProperty 创建房产，链上字段原样保存，不与链上数据核对
func (p *PropertyLogic) CreateProperty(ctx context.Context, creatorId string, input PropertyInput) (*model.PropertyModel, error) {
	// 验证房产数据
	if err := p.validateProperty(input); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = model.DefaultPropertyCategory
	}

	property := &model.PropertyModel{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Location:        input.Location,
		Category:        category,
		Valuation:       input.Valuation,
		TargetRaise:     input.TargetRaise,
		MinInvestment:   input.MinInvestment,
		Images:          input.Images,
		Documents:       input.Documents,
		TokenId:         input.TokenId,
		ContractAddress: input.ContractAddress,
		CreatorId:       creatorId,
	}

	if err := p.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, fmt.Errorf("创建房产失败: %w", err)
	}

	return property, nil
}

// ListProperties 分页获取房产列表
func (p *PropertyLogic) ListProperties(ctx context.Context, category string, page, pageSize int) ([]PropertyView, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := p.db.WithContext(ctx).Model(&model.PropertyModel{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取房产总数失败: %w", err)
	}

	var properties []model.PropertyModel
	if err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("获取房产列表失败: %w", err)
	}

	ids := make([]int64, len(properties))
	for i, property := range properties {
		ids[i] = property.Id
	}
	sold, err := tokensSold(ctx, p.db, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]PropertyView, len(properties))
	for i, property := range properties {
		views[i] = PropertyView{PropertyModel: property, TokensSold: sold[property.Id]}
	}
	return views, total, nil
}

// GetProperty 获取房产详情
func (p *PropertyLogic) GetProperty(ctx context.Context, id int64) (*PropertyView, error) {
	var property model.PropertyModel
	if err := p.db.WithContext(ctx).First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("获取房产详情失败: %w", err)
	}

	sold, err := tokensSold(ctx, p.db, []int64{id})
	if err != nil {
		return nil, err
	}

	return &PropertyView{PropertyModel: property, TokensSold: sold[id]}, nil
}

// UpdateProperty 更新房产描述信息
func (p *PropertyLogic) UpdateProperty(ctx context.Context, id int64, updates map[string]interface{}) (*PropertyView, error) {
	var property model.PropertyModel
	if err := p.db.WithContext(ctx).First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	// 只允许更新特定字段，金额字段不可修改
	allowedFields := []string{"name", "description", "location", "category", "images", "documents", "token_id", "contract_address"}
	for key := range updates {
		if !contains(allowedFields, key) {
			delete(updates, key)
		}
	}

	if len(updates) == 0 {
		return nil, invalid("没有要更新的字段")
	}
	if name, ok := updates["name"].(string); ok && strings.TrimSpace(name) == "" {
		return nil, invalid("房产名称不能为空")
	}

	if err := p.db.WithContext(ctx).Model(&property).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新房产失败: %w", err)
	}

	return p.GetProperty(ctx, id)
}

// validateProperty 验证房产数据
func (p *PropertyLogic) validateProperty(input PropertyInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return invalid("房产名称不能为空")
	}
	if input.Valuation.IsNegative() {
		return invalid("估值不能为负数")
	}
	if input.TargetRaise.IsNegative() {
		return invalid("目标募资额不能为负数")
	}
	if input.MinInvestment.IsNegative() {
		return invalid("最低投资额不能为负数")
	}
	return nil
}

// normalizePage 规范分页参数
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// contains 检查切片是否包含指定元素
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
