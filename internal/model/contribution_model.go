package model

import (
	"time"
)

// ContributionModel 贡献记录，每个 (活动, 贡献者) 一条，金额累计
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId     int64 `json:"campaign_id" gorm:"not null;uniqueIndex:idx_contribution_campaign_actor"`
	Contributor    Actor `json:"contributor" gorm:"not null;uniqueIndex:idx_contribution_campaign_actor"`
	Amount         int64 `json:"amount" gorm:"not null"`
	VotingPower    int64 `json:"voting_power" gorm:"not null"`
	Refunded       bool  `json:"refunded" gorm:"default:false"`
	RefundedAmount int64 `json:"refunded_amount" gorm:"default:0"`
	FirstHeight    int64 `json:"first_height"`
	LastHeight     int64 `json:"last_height"`
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
