package model

import (
	"time"
)

// ChainEventModel 已索引的链上事件
type ChainEventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`

	ContractRole    string `json:"contractRole" gorm:"size:32;not null;index"`
	ContractAddress string `json:"contractAddress" gorm:"size:64;not null"`
	EventName       string `json:"eventName" gorm:"size:128;not null;index"`
	TxHash          string `json:"txHash" gorm:"size:80;not null;uniqueIndex:idx_chain_event_tx_log"`
	LogIndex        int64  `json:"logIndex" gorm:"not null;uniqueIndex:idx_chain_event_tx_log"`
	BlockNum        int64  `json:"blockNum" gorm:"not null;index"`
	Data            string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (ChainEventModel) TableName() string {
	return "chain_event"
}
