package handler

import (
	"net/http"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/gin-gonic/gin"
)

// ChainHandler 区块高度查询；manual 模式下可手动推进
type ChainHandler struct {
	manager *chain.Manager
}

// NewChainHandler 创建区块高度处理器
func NewChainHandler(manager *chain.Manager) *ChainHandler {
	return &ChainHandler{manager: manager}
}

// AdvanceRequest 推进区块请求
type AdvanceRequest struct {
	Blocks int64 `json:"blocks"`
}

// GetHeight 获取当前区块高度
func (h *ChainHandler) GetHeight(c *gin.Context) {
	height, err := h.manager.Oracle().CurrentHeight(c.Request.Context())
	if err != nil {
		ErrorResponse(c, http.StatusServiceUnavailable, CodeHeightUnavailable, "无法获取当前区块高度")
		return
	}
	SuccessResponse(c, http.StatusOK, "获取区块高度成功", gin.H{"height": height})
}

// Advance 推进手动时钟
func (h *ChainHandler) Advance(c *gin.Context) {
	clock := h.manager.ManualClock()
	if clock == nil {
		ErrorResponse(c, http.StatusNotFound, CodeBadRequest, "当前链不支持手动推进区块")
		return
	}
	var req AdvanceRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Blocks <= 0 {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "blocks 必须大于 0")
		return
	}
	height, err := clock.Advance(req.Blocks)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "blocks 过大，区块高度溢出")
		return
	}
	SuccessResponse(c, http.StatusOK, "区块已推进", gin.H{"height": height})
}
