package handler

import (
	"errors"
	"net/http"

	"github.com/blues/propdao/internal/chain"
	"github.com/blues/propdao/internal/logger"
	"github.com/blues/propdao/internal/logic"
	"github.com/gin-gonic/gin"
)

// 错误码
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeProposalNotFound = "PROPOSAL_NOT_FOUND"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeVotingClosed     = "VOTING_CLOSED"
	CodeNotEligible      = "NOT_ELIGIBLE"
	CodeAlreadyVoted     = "ALREADY_VOTED"
	CodeInvalidProposal  = "INVALID_PROPOSAL"
	CodeChainError       = "CHAIN_ERROR"
	CodeChainDisabled    = "CHAIN_DISABLED"
	CodeInternal         = "INTERNAL_ERROR"
)

// internalErrorMessage 未分类错误的统一提示
const internalErrorMessage = "服务器内部错误"

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Code:    code,
		Data:    nil,
	})
}

// HandleError 按错误类型映射状态码和错误码
func HandleError(c *gin.Context, err error) {
	var validationErr *logic.ValidationError
	var eligibilityErr *logic.EligibilityError
	var callErr *chain.CallError

	switch {
	case errors.As(err, &validationErr):
		ErrorResponse(c, http.StatusBadRequest, CodeValidation, validationErr.Message)
	case errors.Is(err, logic.ErrPropertyNotFound),
		errors.Is(err, logic.ErrProposalNotFound),
		errors.Is(err, logic.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.As(err, &eligibilityErr):
		ErrorResponse(c, http.StatusForbidden, CodeNotEligible, eligibilityErr.Error())
	case errors.Is(err, logic.ErrAlreadyVoted):
		ErrorResponse(c, http.StatusConflict, CodeAlreadyVoted, err.Error())
	case errors.Is(err, logic.ErrInvalidProposal):
		ErrorResponse(c, http.StatusUnprocessableEntity, CodeInvalidProposal, err.Error())
	case errors.Is(err, chain.ErrNotConfigured), errors.Is(err, chain.ErrReadOnly):
		ErrorResponse(c, http.StatusServiceUnavailable, CodeChainDisabled, err.Error())
	case errors.As(err, &callErr):
		// 链上错误原样返回，包含 revert 原因
		logger.Warn("Chain call failed: %v", err)
		ErrorResponse(c, http.StatusBadGateway, CodeChainError, callErr.Error())
	default:
		logger.Error("Unhandled error: method=%s path=%s err=%v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		ErrorResponse(c, http.StatusInternalServerError, CodeInternal, internalErrorMessage)
	}
}

// bindError 请求参数错误
func bindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusBadRequest, CodeValidation, "请求参数错误: "+err.Error())
}
