package model

import (
	"time"
)

// ProposalModel DAO 提案
type ProposalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Description    string         `json:"description" gorm:"type:text;not null"`
	PermissionType PermissionType `json:"permissionType" gorm:"size:32;not null"`
	// 仅 SpecificHolders 类型需要，指向房产ID
	TargetPropertyId *int64    `json:"targetTokenId"`
	StartTime        time.Time `json:"startTime" gorm:"not null"`
	EndTime          time.Time `json:"endTime" gorm:"not null;index"`
	CreatorId        string    `json:"creatorId"`

	// 关联
	Votes []VoteModel `json:"votes,omitempty" gorm:"foreignKey:ProposalId"`
}

// PermissionType 投票资格类型
type PermissionType string

const (
	PermissionGlobal          PermissionType = "Global"          // KYC 已认证用户
	PermissionAnyInvestor     PermissionType = "AnyInvestor"     // 任意投资者
	PermissionSpecificHolders PermissionType = "SpecificHolders" // 指定房产持有人
)

// Valid 是否为已知类型
func (p PermissionType) Valid() bool {
	switch p {
	case PermissionGlobal, PermissionAnyInvestor, PermissionSpecificHolders:
		return true
	}
	return false
}

// ProposalStatus 提案状态，由时间计算，不落库
type ProposalStatus string

const (
	ProposalStatusOpen   ProposalStatus = "Open"   // 投票中
	ProposalStatusClosed ProposalStatus = "Closed" // 已结束
)

// StatusAt 返回提案在 now 时刻的状态
func (p *ProposalModel) StatusAt(now time.Time) ProposalStatus {
	if now.After(p.EndTime) {
		return ProposalStatusClosed
	}
	return ProposalStatusOpen
}

// TableName 自定义表名
func (ProposalModel) TableName() string {
	return "proposal"
}
