package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignId     int64        `json:"campaign_id" gorm:"not null;index"`
	ContributionId int64        `json:"contribution_id" gorm:"not null"`
	Contributor    Actor        `json:"contributor" gorm:"not null"`
	Amount         int64        `json:"amount" gorm:"not null"`
	Height         int64        `json:"height"`
	RefundReason   RefundReason `json:"refund_reason"`
}

// RefundReason 退款原因
type RefundReason string

const (
	RefundReasonFailed       RefundReason = "campaign_failed"    // 未达目标
	RefundReasonCancelled    RefundReason = "campaign_cancelled" // 发起人取消
	RefundReasonVoteRejected RefundReason = "vote_rejected"      // 投票未通过
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
