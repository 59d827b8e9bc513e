package model

import (
	"strings"
	"time"
)

// Actor 调用方身份（钱包地址或其他不透明标识）
type Actor string

// ParseActor 解析并规范化调用方身份，空值返回 false
func ParseActor(raw string) (Actor, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return Actor(trimmed), true
}

// String 返回身份字符串
func (a Actor) String() string {
	return string(a)
}

// CampaignModel 众筹活动
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Creator     Actor  `json:"creator" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	// 众筹信息
	Goal             int64 `json:"goal" gorm:"not null"`
	Raised           int64 `json:"raised" gorm:"default:0"`
	TotalContributed int64 `json:"total_contributed" gorm:"default:0"` // 历史累计，不因退款减少
	MinContribution  int64 `json:"min_contribution" gorm:"not null"`

	// 区块高度
	CreatedHeight  int64 `json:"created_height" gorm:"not null"`
	DeadlineHeight int64 `json:"deadline_height" gorm:"not null;index"`
	SettledHeight  int64 `json:"settled_height" gorm:"default:0"`

	// 状态
	Status  CampaignStatus `json:"status" gorm:"not null;index"`
	Claimed bool           `json:"claimed" gorm:"default:false"`

	// 投票
	VotingEnabled        bool  `json:"voting_enabled"`
	VotingDeadlineHeight int64 `json:"voting_deadline_height"`
	VotesFor             int64 `json:"votes_for" gorm:"default:0"`
	VotesAgainst         int64 `json:"votes_against" gorm:"default:0"`
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive     CampaignStatus = "active"     // 进行中
	CampaignStatusSuccessful CampaignStatus = "successful" // 成功
	CampaignStatusFailed     CampaignStatus = "failed"     // 失败
	CampaignStatusCancelled  CampaignStatus = "cancelled"  // 已取消
)

// ParseCampaignStatus 解析状态字符串
func ParseCampaignStatus(raw string) (CampaignStatus, bool) {
	switch CampaignStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case CampaignStatusActive:
		return CampaignStatusActive, true
	case CampaignStatusSuccessful:
		return CampaignStatusSuccessful, true
	case CampaignStatusFailed:
		return CampaignStatusFailed, true
	case CampaignStatusCancelled:
		return CampaignStatusCancelled, true
	}
	return "", false
}

// IsTerminal 是否为终态
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusSuccessful || s == CampaignStatusFailed || s == CampaignStatusCancelled
}

// VotingConcluded 投票期是否已结束
func (c *CampaignModel) VotingConcluded(height int64) bool {
	return height >= c.VotingDeadlineHeight
}

// VoteApproved 按权重多数通过
func (c *CampaignModel) VoteApproved() bool {
	return c.VotesFor > c.VotesAgainst
}

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
