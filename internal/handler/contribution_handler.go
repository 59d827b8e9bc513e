package handler

import (
	"net/http"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/gin-gonic/gin"
)

// ContributionHandler 贡献与退款处理器
type ContributionHandler struct {
	base
}

// NewContributionHandler 创建贡献处理器
func NewContributionHandler(l *ledger.Ledger, oracle chain.HeightOracle) *ContributionHandler {
	return &ContributionHandler{base{ledger: l, oracle: oracle}}
}

// Contribute 向活动贡献
func (h *ContributionHandler) Contribute(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	contributor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if !bindJSON(c, &req) {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	contribution, err := h.ledger.Contribute(c.Request.Context(), id, contributor, req.Amount, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "贡献成功", contribution)
}

// GetContributions 获取活动的贡献记录
func (h *ContributionHandler) GetContributions(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	contributions, err := h.ledger.ListContributions(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", GetContributionsResponse{Contributions: contributions})
}

// GetContribution 获取某个地址的贡献记录
func (h *ContributionHandler) GetContribution(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	contributor, ok := h.pathActor(c)
	if !ok {
		return
	}
	contribution, err := h.ledger.GetContribution(c.Request.Context(), id, contributor)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", contribution)
}

// GetActorContributions 获取某个地址在所有活动中的贡献记录
func (h *ContributionHandler) GetActorContributions(c *gin.Context) {
	contributor, ok := h.pathActor(c)
	if !ok {
		return
	}
	contributions, err := h.ledger.ContributionsByActor(c.Request.Context(), contributor)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", GetContributionsResponse{Contributions: contributions})
}

// RequestRefund 申请退款
func (h *ContributionHandler) RequestRefund(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	contributor, ok := h.actor(c)
	if !ok {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	amount, err := h.ledger.RequestRefund(c.Request.Context(), id, contributor, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", RefundResponse{
		CampaignId:  id,
		Contributor: contributor,
		Amount:      amount,
	})
}

// GetRefunds 获取活动退款记录
func (h *ContributionHandler) GetRefunds(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	refunds, err := h.ledger.ListRefunds(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetRefundsResponse{Refunds: refunds})
}
