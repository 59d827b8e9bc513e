package handler

import (
	"net/http"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/gin-gonic/gin"
)

// VoteHandler 投票与提款处理器
type VoteHandler struct {
	base
}

// NewVoteHandler 创建投票处理器
func NewVoteHandler(l *ledger.Ledger, oracle chain.HeightOracle) *VoteHandler {
	return &VoteHandler{base{ledger: l, oracle: oracle}}
}

// CastVote 投票
func (h *VoteHandler) CastVote(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	voter, ok := h.actor(c)
	if !ok {
		return
	}
	var req CastVoteRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.VoteFor == nil {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "voteFor 不能为空")
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	vote, err := h.ledger.CastVote(c.Request.Context(), id, voter, *req.VoteFor, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "投票成功", vote)
}

// GetVote 获取某个地址的投票
func (h *VoteHandler) GetVote(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	voter, ok := h.pathActor(c)
	if !ok {
		return
	}
	vote, err := h.ledger.GetVote(c.Request.Context(), id, voter)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取投票记录成功", vote)
}

// ClaimFunds 发起人提款
func (h *VoteHandler) ClaimFunds(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	payout, err := h.ledger.ClaimFunds(c.Request.Context(), id, actor, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "提款成功", payout)
}

// GetSettlement 获取提款结算记录
func (h *VoteHandler) GetSettlement(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	record, err := h.ledger.GetSettlement(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取提款记录成功", record)
}
