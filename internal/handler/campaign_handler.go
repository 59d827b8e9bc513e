package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/model"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 活动处理器
type CampaignHandler struct {
	base
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(l *ledger.Ledger, oracle chain.HeightOracle) *CampaignHandler {
	return &CampaignHandler{base{ledger: l, oracle: oracle}}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	creator, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateCampaignRequest
	if !bindJSON(c, &req) {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	campaign, err := h.ledger.CreateCampaign(c.Request.Context(), ledger.CreateCampaignParams{
		Creator:              creator,
		Title:                req.Title,
		Description:          req.Description,
		Goal:                 req.Goal,
		DurationBlocks:       req.DurationBlocks,
		VotingEnabled:        req.VotingEnabled,
		VotingDurationBlocks: req.VotingDurationBlocks,
		MinContribution:      req.MinContribution,
	}, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", CampaignResponse{
		Campaign: campaign,
		Progress: ledger.CampaignProgress(campaign, height),
		Height:   height,
	})
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	filter, ok := parseCampaignFilter(c)
	if !ok {
		return
	}

	page, err := h.ledger.ListCampaigns(c.Request.Context(), filter)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", GetCampaignsResponse{
		Campaigns:  page.Campaigns,
		Pagination: newPagination(page.Page, page.PageSize, page.Total),
	})
}

func parseCampaignFilter(c *gin.Context) (ledger.CampaignFilter, bool) {
	var filter ledger.CampaignFilter

	if raw := c.Query("status"); raw != "" && !strings.EqualFold(raw, "all") {
		status, ok := model.ParseCampaignStatus(raw)
		if !ok {
			ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的活动状态: "+raw)
			return filter, false
		}
		filter.Status = status
	}

	sortBy, ok := ledger.ParseSortBy(c.Query("sort"))
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的排序方式: "+c.Query("sort"))
		return filter, false
	}
	filter.SortBy = sortBy
	filter.Search = c.Query("search")

	if raw := c.Query("creator"); raw != "" {
		creator, ok := model.ParseActor(raw)
		if !ok {
			ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的 creator")
			return filter, false
		}
		filter.Creator = creator
	}

	var err error
	if raw := c.Query("min_goal"); raw != "" {
		if filter.MinGoal, err = strconv.ParseInt(raw, 10, 64); err != nil {
			ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的 min_goal")
			return filter, false
		}
	}
	if raw := c.Query("max_goal"); raw != "" {
		if filter.MaxGoal, err = strconv.ParseInt(raw, 10, 64); err != nil {
			ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的 max_goal")
			return filter, false
		}
	}

	if filter.Page, err = strconv.Atoi(c.DefaultQuery("page", "1")); err != nil || filter.Page < 1 {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的 page")
		return filter, false
	}
	filter.PageSize, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(ledger.DefaultPageSize)))
	if err != nil || filter.PageSize < 1 || filter.PageSize > ledger.MaxPageSize {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的 page_size")
		return filter, false
	}
	return filter, true
}

// GetCampaign 获取单个活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	campaign, err := h.ledger.GetCampaign(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", CampaignResponse{
		Campaign: campaign,
		Progress: ledger.CampaignProgress(campaign, height),
		Height:   height,
	})
}

// GetProgress 获取活动进度
func (h *CampaignHandler) GetProgress(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	progress, err := h.ledger.Progress(c.Request.Context(), id, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动进度成功", progress)
}

// SettleCampaign 结算活动，任何人都可以触发
func (h *CampaignHandler) SettleCampaign(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	height, ok := h.height(c)
	if !ok {
		return
	}

	campaign, err := h.ledger.SettleCampaign(c.Request.Context(), id, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "活动结算成功", campaign)
}

// CancelCampaign 取消活动
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
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

	campaign, err := h.ledger.CancelCampaign(c.Request.Context(), id, actor, height)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "活动已取消", campaign)
}

// GetJournal 获取活动流水
func (h *CampaignHandler) GetJournal(c *gin.Context) {
	id, ok := h.campaignId(c)
	if !ok {
		return
	}
	entries, err := h.ledger.Journal(c.Request.Context(), id)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动流水成功", GetJournalResponse{Entries: entries})
}

// GetStats 获取平台统计信息
func (h *CampaignHandler) GetStats(c *gin.Context) {
	stats, err := h.ledger.Stats(c.Request.Context())
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取平台统计信息成功", stats)
}

// GetFeeRate 获取平台手续费率
func (h *CampaignHandler) GetFeeRate(c *gin.Context) {
	rate, err := h.ledger.FeeRate(c.Request.Context())
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取平台费率成功", FeeRateResponse{
		FeeRate:     rate,
		BasisPoints: ledger.BasisPoints,
	})
}
