package repository

import (
	"context"
	"errors"

	"github.com/blues/crowdledger/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Store 账本存储。所有写操作都通过 Update 在单个活动的排他事务内完成。
type Store interface {
	// CreateCampaign 写入新活动并分配 ID，entry 在同一事务内写入
	CreateCampaign(ctx context.Context, campaign *model.CampaignModel, entry *model.JournalModel) error
	// Update 对单个活动加排他锁后执行 fn，fn 返回 nil 时提交，否则全部回滚
	Update(ctx context.Context, campaignId int64, fn func(tx Tx) error) error

	GetCampaign(ctx context.Context, id int64) (*model.CampaignModel, error)
	ListCampaigns(ctx context.Context) ([]model.CampaignModel, error)
	CountCampaigns(ctx context.Context) (int64, error)
	// ListDueCampaigns 返回截止高度已到但仍为 active 的活动 ID
	ListDueCampaigns(ctx context.Context, height int64) ([]int64, error)

	GetContribution(ctx context.Context, campaignId int64, contributor model.Actor) (*model.ContributionModel, error)
	ListContributions(ctx context.Context, campaignId int64) ([]model.ContributionModel, error)
	// ListContributionsByActor 某个地址在所有活动中的贡献，按活动 ID 升序
	ListContributionsByActor(ctx context.Context, contributor model.Actor) ([]model.ContributionModel, error)
	CountContributors(ctx context.Context) (int64, error)

	GetVote(ctx context.Context, campaignId int64, voter model.Actor) (*model.VoteModel, error)

	ListRefundRecords(ctx context.Context, campaignId int64) ([]model.RefundRecordModel, error)
	GetSettlementRecord(ctx context.Context, campaignId int64) (*model.SettlementRecordModel, error)
	ListJournal(ctx context.Context, campaignId int64) ([]model.JournalModel, error)
}

// Tx 单个活动上的事务视图
type Tx interface {
	// Campaign 返回被锁定的活动副本，修改后需调用 SaveCampaign
	Campaign() *model.CampaignModel
	SaveCampaign(campaign *model.CampaignModel) error

	Contribution(contributor model.Actor) (*model.ContributionModel, error)
	SaveContribution(contribution *model.ContributionModel) error

	Vote(voter model.Actor) (*model.VoteModel, error)
	CreateVote(vote *model.VoteModel) error

	CreateRefundRecord(record *model.RefundRecordModel) error
	CreateSettlementRecord(record *model.SettlementRecordModel) error
	AppendJournal(entry *model.JournalModel) error
}
