package model

import (
	"time"
)

// SettlementRecordModel 发起人提款结算记录
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignId    int64 `json:"campaign_id" gorm:"not null;uniqueIndex"` // 每个活动只能提款一次
	Creator       Actor `json:"creator" gorm:"not null"`
	TotalAmount   int64 `json:"total_amount" gorm:"not null"`   // 总金额
	PlatformFee   int64 `json:"platform_fee" gorm:"default:0"`  // 平台手续费
	FeeRate       int64 `json:"fee_rate" gorm:"default:0"`      // 基点
	CreatorAmount int64 `json:"creator_amount" gorm:"not null"` // 创建者获得金额
	Height        int64 `json:"height"`
}

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
