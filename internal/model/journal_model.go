package model

import (
	"time"
)

// JournalModel 账本流水，每次成功的状态变更记录一条
type JournalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignId int64       `json:"campaign_id" gorm:"not null;index"`
	EntryType  JournalType `json:"entry_type" gorm:"not null"`
	Actor      Actor       `json:"actor"`
	Amount     int64       `json:"amount"`
	Height     int64       `json:"height" gorm:"not null"`
	Data       string      `json:"data" gorm:"type:text"`
}

// JournalType 流水类型
type JournalType string

const (
	JournalTypeCreated     JournalType = "created"
	JournalTypeContributed JournalType = "contributed"
	JournalTypeSettled     JournalType = "settled"
	JournalTypeCancelled   JournalType = "cancelled"
	JournalTypeVoted       JournalType = "voted"
	JournalTypeClaimed     JournalType = "claimed"
	JournalTypeRefunded    JournalType = "refunded"
)

// TableName 自定义表名
func (JournalModel) TableName() string {
	return "journal"
}
