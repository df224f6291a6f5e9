package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/propdao/internal/model"
	"gorm.io/gorm"
)

// ChainEventLogic 链上事件业务逻辑，只读索引，不影响链下数据
type ChainEventLogic struct {
	db *gorm.DB
}

// NewChainEventLogic 创建链上事件业务逻辑
func NewChainEventLogic(db *gorm.DB) *ChainEventLogic {
	return &ChainEventLogic{db: db}
}

// SaveEvent 保存链上事件，已存在时返回 false
func (e *ChainEventLogic) SaveEvent(ctx context.Context, event *model.ChainEventModel) (bool, error) {
	// 验证事件数据
	if err := e.validateEvent(event); err != nil {
		return false, err
	}

	// 检查事件是否已存在
	exists, err := e.CheckEventExists(ctx, event.TxHash, event.LogIndex)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := e.db.WithContext(ctx).Create(event).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("创建事件记录失败: %w", err)
	}

	return true, nil
}

// ListEvents 获取事件列表
func (e *ChainEventLogic) ListEvents(ctx context.Context, role, eventName string, page, pageSize int) ([]model.ChainEventModel, int64, error) {
	var events []model.ChainEventModel
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	// 构建查询条件
	query := e.db.WithContext(ctx).Model(&model.ChainEventModel{})
	if role != "" {
		query = query.Where("contract_role = ?", role)
	}
	if eventName != "" {
		query = query.Where("event_name = ?", eventName)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("block_num DESC, log_index DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// LastIndexedBlock 获取合约最后索引的区块号，没有记录时返回 0
func (e *ChainEventLogic) LastIndexedBlock(ctx context.Context, contractAddress string) (uint64, error) {
	var lastEvent model.ChainEventModel
	err := e.db.WithContext(ctx).
		Where("contract_address = ?", contractAddress).
		Order("block_num DESC").
		First(&lastEvent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("获取最后处理区块号失败: %w", err)
	}
	return uint64(lastEvent.BlockNum), nil
}

// CheckEventExists 检查事件是否已存在
func (e *ChainEventLogic) CheckEventExists(ctx context.Context, txHash string, logIndex int64) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&model.ChainEventModel{}).
		Where("tx_hash = ? AND log_index = ?", txHash, logIndex).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查事件是否存在失败: %w", err)
	}
	return count > 0, nil
}

// validateEvent 验证事件数据
func (e *ChainEventLogic) validateEvent(event *model.ChainEventModel) error {
	if event.ContractAddress == "" {
		return invalid("合约地址不能为空")
	}
	if event.ContractRole == "" {
		return invalid("合约角色不能为空")
	}
	if event.EventName == "" {
		return invalid("事件名称不能为空")
	}
	if event.TxHash == "" {
		return invalid("交易哈希不能为空")
	}
	if event.BlockNum == 0 {
		return invalid("区块号不能为空")
	}
	return nil
}
