package handler

import (
	"net/http"

	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/logger"
	"github.com/gin-gonic/gin"
)

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
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// LedgerErrorResponse 账本错误按类型映射状态码，code 字段携带错误类型
func LedgerErrorResponse(c *gin.Context, err error) {
	kind, ok := ledger.KindOf(err)
	if !ok {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误")
		return
	}
	ErrorResponse(c, statusForKind(kind), string(kind), err.Error())
}

const (
	CodeInternal          = "Internal"
	CodeBadRequest        = "BadRequest"
	CodeMissingActor      = "MissingActor"
	CodeHeightUnavailable = "HeightUnavailable"
)

func statusForKind(kind ledger.Kind) int {
	switch kind {
	case ledger.KindInvalidParameters, ledger.KindInvalidAmount:
		return http.StatusBadRequest
	case ledger.KindCampaignNotFound, ledger.KindContributionNotFound, ledger.KindSettlementNotFound:
		return http.StatusNotFound
	case ledger.KindUnauthorized:
		return http.StatusForbidden
	case ledger.KindBelowMinimumContribution, ledger.KindNoVotingPower, ledger.KindNothingToRefund:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}
