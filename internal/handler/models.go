package handler

import (
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 活动相关请求与响应模型

// CreateCampaignRequest 创建活动请求，发起人取自 X-Actor
type CreateCampaignRequest struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	Goal                 int64  `json:"goal"`
	DurationBlocks       int64  `json:"durationBlocks"`
	VotingEnabled        bool   `json:"votingEnabled"`
	VotingDurationBlocks int64  `json:"votingDurationBlocks"`
	MinContribution      int64  `json:"minContribution"`
}

// CampaignResponse 活动详情附带进度
type CampaignResponse struct {
	Campaign *model.CampaignModel `json:"campaign"`
	Progress ledger.Progress      `json:"progress"`
	Height   int64                `json:"height"`
}

// GetCampaignsResponse 活动列表响应
type GetCampaignsResponse struct {
	Campaigns  []model.CampaignModel `json:"campaigns"`
	Pagination Pagination            `json:"pagination"`
}

// ContributeRequest 贡献请求
type ContributeRequest struct {
	Amount int64 `json:"amount"`
}

// GetContributionsResponse 贡献记录列表响应
type GetContributionsResponse struct {
	Contributions []model.ContributionModel `json:"contributions"`
}

// FeeRateResponse 平台费率，fee_rate / basis_points 为实际比例
type FeeRateResponse struct {
	FeeRate     int64 `json:"fee_rate"`
	BasisPoints int64 `json:"basis_points"`
}

// CastVoteRequest 投票请求，voteFor 必填
type CastVoteRequest struct {
	VoteFor *bool `json:"voteFor"`
}

// RefundResponse 退款结果
type RefundResponse struct {
	CampaignId  int64       `json:"campaignId"`
	Contributor model.Actor `json:"contributor"`
	Amount      int64       `json:"amount"`
}

// GetRefundsResponse 退款记录列表响应
type GetRefundsResponse struct {
	Refunds []model.RefundRecordModel `json:"refunds"`
}

// GetJournalResponse 活动流水响应
type GetJournalResponse struct {
	Entries []model.JournalModel `json:"entries"`
}
