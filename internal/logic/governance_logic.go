package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/propdao/internal/model"
	"gorm.io/gorm"
)

// GovernanceLogic DAO 提案与投票业务逻辑
type GovernanceLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGovernanceLogic 创建治理业务逻辑
func NewGovernanceLogic(db *gorm.DB) *GovernanceLogic {
	return &GovernanceLogic{db: db, now: time.Now}
}

// ProposalInput 创建提案的输入
type ProposalInput struct {
	Description     string
	PermissionType  model.PermissionType
	TargetTokenId   *int64
	DurationSeconds int64
}

// Tally 投票统计，读取时计算，不设法定人数
type Tally struct {
	For     int64 `json:"for"`
	Against int64 `json:"against"`
	Total   int64 `json:"total"`
}

// ProposalView 提案及其投票、统计和状态
type ProposalView struct {
	model.ProposalModel
	Tally  Tally                `json:"tally"`
	Status model.ProposalStatus `json:"status"`
}

// CreateProposal 创建限时提案
func (g *GovernanceLogic) CreateProposal(ctx context.Context, creatorId string, input ProposalInput) (*model.ProposalModel, error) {
	// 验证提案数据
	if err := g.validateProposal(input); err != nil {
		return nil, err
	}

	// SpecificHolders 的目标房产必须存在
	if input.TargetTokenId != nil {
		var count int64
		if err := g.db.WithContext(ctx).Model(&model.PropertyModel{}).
			Where("id = ?", *input.TargetTokenId).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("获取目标房产失败: %w", err)
		}
		if count == 0 {
			return nil, ErrPropertyNotFound
		}
	}

	start := g.now()
	proposal := &model.ProposalModel{
		Description:      strings.TrimSpace(input.Description),
		PermissionType:   input.PermissionType,
		TargetPropertyId: input.TargetTokenId,
		StartTime:        start,
		EndTime:          start.Add(time.Duration(input.DurationSeconds) * time.Second),
		CreatorId:        creatorId,
	}

	if err := g.db.WithContext(ctx).Create(proposal).Error; err != nil {
		return nil, fmt.Errorf("创建提案失败: %w", err)
	}

	return proposal, nil
}

// ListProposals 获取全部提案及投票
func (g *GovernanceLogic) ListProposals(ctx context.Context) ([]ProposalView, error) {
	var proposals []model.ProposalModel
	if err := g.db.WithContext(ctx).
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id DESC").
		Find(&proposals).Error; err != nil {
		return nil, fmt.Errorf("获取提案列表失败: %w", err)
	}

	now := g.now()
	views := make([]ProposalView, len(proposals))
	for i, proposal := range proposals {
		views[i] = ProposalView{
			ProposalModel: proposal,
			Tally:         tallyVotes(proposal.Votes),
			Status:        proposal.StatusAt(now),
		}
	}
	return views, nil
}

// GetProposal 获取单个提案
func (g *GovernanceLogic) GetProposal(ctx context.Context, id int64) (*ProposalView, error) {
	var proposal model.ProposalModel
	if err := g.db.WithContext(ctx).
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&proposal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("获取提案失败: %w", err)
	}

	return &ProposalView{
		ProposalModel: proposal,
		Tally:         tallyVotes(proposal.Votes),
		Status:        proposal.StatusAt(g.now()),
	}, nil
}

// CastVote 校验投票资格并记录投票
//
// 校验顺序: 提案存在 -> 未截止 -> 用户存在 -> 按资格类型检查。
// 重复投票由 (proposal_id, user_id) 唯一索引拒绝。
func (g *GovernanceLogic) CastVote(ctx context.Context, proposalId int64, userId string, support bool) (*model.VoteModel, error) {
	db := g.db.WithContext(ctx)

	var proposal model.ProposalModel
	if err := db.First(&proposal, proposalId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("获取提案失败: %w", err)
	}

	if proposal.StatusAt(g.now()) == model.ProposalStatusClosed {
		return nil, ErrVotingClosed
	}

	var user model.UserModel
	if err := db.First(&user, "id = ?", userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}

	if err := g.checkEligibility(ctx, &proposal, &user); err != nil {
		return nil, err
	}

	vote := &model.VoteModel{
		ProposalId: proposal.Id,
		UserId:     user.Id,
		Support:    support,
	}
	if err := db.Create(vote).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("创建投票失败: %w", err)
	}

	return vote, nil
}

// Tally 统计提案投票
func (g *GovernanceLogic) Tally(ctx context.Context, proposalId int64) (Tally, error) {
	var tally Tally
	if err := g.db.WithContext(ctx).Model(&model.VoteModel{}).
		Where("proposal_id = ? AND support = ?", proposalId, true).
		Count(&tally.For).Error; err != nil {
		return Tally{}, fmt.Errorf("统计赞成票失败: %w", err)
	}
	if err := g.db.WithContext(ctx).Model(&model.VoteModel{}).
		Where("proposal_id = ? AND support = ?", proposalId, false).
		Count(&tally.Against).Error; err != nil {
		return Tally{}, fmt.Errorf("统计反对票失败: %w", err)
	}

	tally.Total = tally.For + tally.Against
	return tally, nil
}

// checkEligibility 按提案资格类型检查用户
func (g *GovernanceLogic) checkEligibility(ctx context.Context, proposal *model.ProposalModel, user *model.UserModel) error {
	switch proposal.PermissionType {
	case model.PermissionGlobal:
		if user.KycStatus != model.KycStatusVerified {
			return &EligibilityError{Reason: ReasonKyc}
		}
		return nil

	case model.PermissionAnyInvestor:
		count, err := g.countInvestments(ctx, user.Id, nil)
		if err != nil {
			return err
		}
		if count == 0 {
			return &EligibilityError{Reason: ReasonNoInvestment}
		}
		return nil

	case model.PermissionSpecificHolders:
		if proposal.TargetPropertyId == nil {
			return fmt.Errorf("%w: SpecificHolders 提案缺少目标房产", ErrInvalidProposal)
		}
		count, err := g.countInvestments(ctx, user.Id, proposal.TargetPropertyId)
		if err != nil {
			return err
		}
		if count == 0 {
			return &EligibilityError{Reason: ReasonNotHolder}
		}
		return nil

	default:
		return fmt.Errorf("%w: 未知的资格类型 %s", ErrInvalidProposal, proposal.PermissionType)
	}
}

// countInvestments 统计用户投资笔数，propertyId 为空时不限房产
func (g *GovernanceLogic) countInvestments(ctx context.Context, userId string, propertyId *int64) (int64, error) {
	query := g.db.WithContext(ctx).Model(&model.InvestmentModel{}).Where("user_id = ?", userId)
	if propertyId != nil {
		query = query.Where("property_id = ?", *propertyId)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("获取投资记录失败: %w", err)
	}
	return count, nil
}

// validateProposal 验证提案数据
func (g *GovernanceLogic) validateProposal(input ProposalInput) error {
	if strings.TrimSpace(input.Description) == "" {
		return invalid("提案描述不能为空")
	}
	if !input.PermissionType.Valid() {
		return invalid(fmt.Sprintf("无效的资格类型: %s", input.PermissionType))
	}
	if input.DurationSeconds <= 0 {
		return invalid("投票时长必须大于0")
	}
	if input.PermissionType == model.PermissionSpecificHolders && input.TargetTokenId == nil {
		return invalid("SpecificHolders 提案必须指定目标房产")
	}
	if input.PermissionType != model.PermissionSpecificHolders && input.TargetTokenId != nil {
		return invalid("只有 SpecificHolders 提案可以指定目标房产")
	}
	return nil
}

// tallyVotes 统计已加载的投票
func tallyVotes(votes []model.VoteModel) Tally {
	var tally Tally
	for _, vote := range votes {
		if vote.Support {
			tally.For++
		} else {
			tally.Against++
		}
	}
	tally.Total = tally.For + tally.Against
	return tally
}
