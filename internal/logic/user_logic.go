package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/propdao/internal/model"
	"gorm.io/gorm"
)

// UserLogic 用户业务逻辑
type UserLogic struct {
	db *gorm.DB
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB) *UserLogic {
	return &UserLogic{db: db}
}

// SyncUser 按身份提供方ID创建或刷新用户，新用户默认未认证
func (u *UserLogic) SyncUser(ctx context.Context, id, email, walletAddress string) (*model.UserModel, error) {
	if id == "" {
		return nil, invalid("用户ID不能为空")
	}

	var user model.UserModel
	err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.UserModel{
			Id:            id,
			Email:         email,
			WalletAddress: walletAddress,
			KycStatus:     model.KycStatusUnverified,
		}
		if err := u.db.WithContext(ctx).Create(&user).Error; err != nil {
			// 并发首次同步时另一请求已创建
			if isDuplicateKey(err) {
				return u.GetUser(ctx, id)
			}
			return nil, fmt.Errorf("创建用户失败: %w", err)
		}
		return &user, nil
	case err != nil:
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}

	// 只刷新身份提供方给出的非空字段
	updates := map[string]interface{}{}
	if email != "" && email != user.Email {
		updates["email"] = email
	}
	if walletAddress != "" && walletAddress != user.WalletAddress {
		updates["wallet_address"] = walletAddress
	}
	if len(updates) > 0 {
		if err := u.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("更新用户失败: %w", err)
		}
		if email != "" {
			user.Email = email
		}
		if walletAddress != "" {
			user.WalletAddress = walletAddress
		}
	}

	return &user, nil
}

// GetUser 获取用户
func (u *UserLogic) GetUser(ctx context.Context, id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return &user, nil
}

// SetKycStatus 更新用户KYC状态，替代外部KYC服务回调
func (u *UserLogic) SetKycStatus(ctx context.Context, id string, status model.KycStatus) (*model.UserModel, error) {
	if !status.Valid() {
		return nil, invalid(fmt.Sprintf("无效的KYC状态: %s", status))
	}

	user, err := u.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := u.db.WithContext(ctx).Model(user).Update("kyc_status", status).Error; err != nil {
		return nil, fmt.Errorf("更新KYC状态失败: %w", err)
	}
	user.KycStatus = status
	return user, nil
}
