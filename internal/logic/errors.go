package logic

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrPropertyNotFound = errors.New("房产不存在")
	ErrProposalNotFound = errors.New("提案不存在")
	ErrVotingClosed     = errors.New("投票已结束")
	ErrAlreadyVoted     = errors.New("已对该提案投过票")
	// ErrInvalidProposal 提案配置错误，与投票人资格无关
	ErrInvalidProposal = errors.New("提案配置无效")
)

// 资格不满足的原因
const (
	ReasonKyc          = "kyc"
	ReasonNoInvestment = "no-investment"
	ReasonNotHolder    = "not-holder"
)

// EligibilityError 投票资格不满足
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	switch e.Reason {
	case ReasonKyc:
		return "没有投票资格: 需要完成KYC认证"
	case ReasonNoInvestment:
		return "没有投票资格: 需要至少一笔投资"
	case ReasonNotHolder:
		return "没有投票资格: 需要持有目标房产"
	default:
		return "没有投票资格: " + e.Reason
	}
}

// ValidationError 入参校验失败
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// isDuplicateKey 判断是否为唯一索引冲突
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
