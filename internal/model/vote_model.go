package model

import (
	"time"
)

// VoteModel 投票记录，每个 (活动, 投票人) 仅一条且不可修改
type VoteModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignId int64 `json:"campaign_id" gorm:"not null;uniqueIndex:idx_vote_campaign_voter"`
	Voter      Actor `json:"voter" gorm:"not null;uniqueIndex:idx_vote_campaign_voter"`
	Voted      bool  `json:"voted" gorm:"default:true"`
	VoteFor    bool  `json:"vote_for"`
	Weight     int64 `json:"weight" gorm:"not null"` // 投票时的 voting power
	CastHeight int64 `json:"cast_height"`
}

// TableName 自定义表名
func (VoteModel) TableName() string {
	return "vote"
}
