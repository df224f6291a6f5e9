package handler

import (
	"errors"
	"net/http"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/logic"
	"github.com/blues/propdao/internal/metrics"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DAOHandler struct {
	governanceLogic *logic.GovernanceLogic
}

func NewDAOHandler(db *gorm.DB) *DAOHandler {
	return &DAOHandler{
		governanceLogic: logic.NewGovernanceLogic(db),
	}
}

// CreateProposal 创建提案
func (h *DAOHandler) CreateProposal(c *gin.Context) {
	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	claims, _ := auth.CurrentClaims(c)

	proposal, err := h.governanceLogic.CreateProposal(c.Request.Context(), claims.Subject, logic.ProposalInput{
		Description:     req.Description,
		PermissionType:  req.PermissionType,
		TargetTokenId:   req.TargetTokenId,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		// 创建阶段的所有拒绝都按参数错误返回
		if errors.Is(err, logic.ErrPropertyNotFound) {
			ErrorResponse(c, http.StatusBadRequest, CodeValidation, err.Error())
			return
		}
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "提案创建成功", proposal)
}

// GetProposals 获取提案列表及投票
func (h *DAOHandler) GetProposals(c *gin.Context) {
	proposals, err := h.governanceLogic.ListProposals(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取提案列表成功", proposals)
}

// GetProposal 获取提案详情
func (h *DAOHandler) GetProposal(c *gin.Context) {
	id, ok := parseIdParam(c, "无效的提案ID")
	if !ok {
		return
	}

	proposal, err := h.governanceLogic.GetProposal(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取提案详情成功", proposal)
}

// CastVote 投票，业务拒绝统一返回 400 并携带错误码
func (h *DAOHandler) CastVote(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	claims, _ := auth.CurrentClaims(c)

	vote, err := h.governanceLogic.CastVote(c.Request.Context(), req.ProposalId, claims.Subject, *req.Support)
	if err != nil {
		code, status := voteErrorCode(err)
		metrics.RecordVote(code)
		if status == http.StatusInternalServerError {
			HandleError(c, err)
			return
		}
		ErrorResponse(c, status, code, err.Error())
		return
	}

	metrics.RecordVote("accepted")
	SuccessResponse(c, http.StatusCreated, "投票成功", vote)
}

// voteErrorCode 投票错误映射
func voteErrorCode(err error) (string, int) {
	var eligibilityErr *logic.EligibilityError

	switch {
	case errors.Is(err, logic.ErrProposalNotFound):
		return CodeProposalNotFound, http.StatusBadRequest
	case errors.Is(err, logic.ErrVotingClosed):
		return CodeVotingClosed, http.StatusBadRequest
	case errors.Is(err, logic.ErrUserNotFound):
		return CodeUserNotFound, http.StatusBadRequest
	case errors.As(err, &eligibilityErr):
		return CodeNotEligible, http.StatusBadRequest
	case errors.Is(err, logic.ErrAlreadyVoted):
		return CodeAlreadyVoted, http.StatusBadRequest
	case errors.Is(err, logic.ErrInvalidProposal):
		return CodeInvalidProposal, http.StatusUnprocessableEntity
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}
