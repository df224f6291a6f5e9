package model

import (
	"time"
)

// UserModel 用户，主键为身份提供方签发的不可变ID
type UserModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:191"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Email         string    `json:"email"`
	WalletAddress string    `json:"walletAddress" gorm:"index"`
	KycStatus     KycStatus `json:"kycStatus" gorm:"size:32;not null;default:'unverified'"`
}

// KycStatus KYC 状态
type KycStatus string

const (
	KycStatusUnverified KycStatus = "unverified" // 未认证
	KycStatusPending    KycStatus = "pending"    // 审核中
	KycStatusVerified   KycStatus = "verified"   // 已认证
)

// Valid 是否为已知状态
func (s KycStatus) Valid() bool {
	switch s {
	case KycStatusUnverified, KycStatusPending, KycStatusVerified:
		return true
	}
	return false
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user"
}
