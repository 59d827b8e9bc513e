package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/crowdledger/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore 基于 gorm 的持久化存储
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore 创建持久化存储，db 需已完成迁移
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateCampaign 创建活动，ID 由数据库序列分配，回滚后不会复用
func (s *PostgresStore) CreateCampaign(ctx context.Context, campaign *model.CampaignModel, entry *model.JournalModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}
		if entry == nil {
			return nil
		}
		entry.CampaignId = campaign.Id
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append journal: %w", err)
		}
		return nil
	})
}

// Update 在事务内以 SELECT ... FOR UPDATE 锁定活动行后执行 fn
func (s *PostgresStore) Update(ctx context.Context, campaignId int64, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&campaign, campaignId).Error
		if err != nil {
			return notFound(err)
		}
		return fn(&gormTx{db: tx, campaign: campaign})
	})
}

// GetCampaign 获取活动
func (s *PostgresStore) GetCampaign(ctx context.Context, id int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := s.db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &campaign, nil
}

// ListCampaigns 按 ID 升序返回所有活动
func (s *PostgresStore) ListCampaigns(ctx context.Context) ([]model.CampaignModel, error) {
	var campaigns []model.CampaignModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// CountCampaigns 活动总数
func (s *PostgresStore) CountCampaigns(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.CampaignModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return total, nil
}

// ListDueCampaigns 待结算活动
func (s *PostgresStore) ListDueCampaigns(ctx context.Context, height int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&model.CampaignModel{}).
		Where("status = ? AND deadline_height <= ?", model.CampaignStatusActive, height).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due campaigns: %w", err)
	}
	return ids, nil
}

// GetContribution 获取贡献记录
func (s *PostgresStore) GetContribution(ctx context.Context, campaignId int64, contributor model.Actor) (*model.ContributionModel, error) {
	return findContribution(s.db.WithContext(ctx), campaignId, contributor)
}

// ListContributions 活动的所有贡献记录
func (s *PostgresStore) ListContributions(ctx context.Context, campaignId int64) ([]model.ContributionModel, error) {
	var contributions []model.ContributionModel
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Find(&contributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	return contributions, nil
}

// ListContributionsByActor 某个地址的所有贡献记录
func (s *PostgresStore) ListContributionsByActor(ctx context.Context, contributor model.Actor) ([]model.ContributionModel, error) {
	var contributions []model.ContributionModel
	err := s.db.WithContext(ctx).
		Where("contributor = ?", contributor).
		Order("campaign_id ASC").
		Find(&contributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions by actor: %w", err)
	}
	return contributions, nil
}

// CountContributors 去重贡献者数量
func (s *PostgresStore) CountContributors(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.ContributionModel{}).
		Distinct("contributor").
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count contributors: %w", err)
	}
	return total, nil
}

// GetVote 获取投票记录
func (s *PostgresStore) GetVote(ctx context.Context, campaignId int64, voter model.Actor) (*model.VoteModel, error) {
	return findVote(s.db.WithContext(ctx), campaignId, voter)
}

// ListRefundRecords 活动的退款记录
func (s *PostgresStore) ListRefundRecords(ctx context.Context, campaignId int64) ([]model.RefundRecordModel, error) {
	var records []model.RefundRecordModel
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refund records: %w", err)
	}
	return records, nil
}

// GetSettlementRecord 活动的提款记录
func (s *PostgresStore) GetSettlementRecord(ctx context.Context, campaignId int64) (*model.SettlementRecordModel, error) {
	var record model.SettlementRecordModel
	if err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignId).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// ListJournal 活动流水
func (s *PostgresStore) ListJournal(ctx context.Context, campaignId int64) ([]model.JournalModel, error) {
	var entries []model.JournalModel
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	return entries, nil
}

type gormTx struct {
	db       *gorm.DB
	campaign model.CampaignModel
}

func (t *gormTx) Campaign() *model.CampaignModel {
	campaign := t.campaign
	return &campaign
}

func (t *gormTx) SaveCampaign(campaign *model.CampaignModel) error {
	if campaign.Id != t.campaign.Id {
		return fmt.Errorf("campaign %d is not locked by this transaction", campaign.Id)
	}
	if err := t.db.Save(campaign).Error; err != nil {
		return fmt.Errorf("failed to save campaign %d: %w", campaign.Id, err)
	}
	t.campaign = *campaign
	return nil
}

func (t *gormTx) Contribution(contributor model.Actor) (*model.ContributionModel, error) {
	return findContribution(t.db, t.campaign.Id, contributor)
}

func (t *gormTx) SaveContribution(contribution *model.ContributionModel) error {
	if err := t.db.Save(contribution).Error; err != nil {
		return fmt.Errorf("failed to save contribution: %w", err)
	}
	return nil
}

func (t *gormTx) Vote(voter model.Actor) (*model.VoteModel, error) {
	return findVote(t.db, t.campaign.Id, voter)
}

func (t *gormTx) CreateVote(vote *model.VoteModel) error {
	if err := t.db.Create(vote).Error; err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (t *gormTx) CreateRefundRecord(record *model.RefundRecordModel) error {
	if err := t.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create refund record: %w", err)
	}
	return nil
}

func (t *gormTx) CreateSettlementRecord(record *model.SettlementRecordModel) error {
	if err := t.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create settlement record: %w", err)
	}
	return nil
}

func (t *gormTx) AppendJournal(entry *model.JournalModel) error {
	entry.CampaignId = t.campaign.Id
	if err := t.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append journal: %w", err)
	}
	return nil
}

func findContribution(db *gorm.DB, campaignId int64, contributor model.Actor) (*model.ContributionModel, error) {
	var contribution model.ContributionModel
	err := db.Where("campaign_id = ? AND contributor = ?", campaignId, contributor).First(&contribution).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &contribution, nil
}

func findVote(db *gorm.DB, campaignId int64, voter model.Actor) (*model.VoteModel, error) {
	var vote model.VoteModel
	err := db.Where("campaign_id = ? AND voter = ?", campaignId, voter).First(&vote).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &vote, nil
}

// notFound 将 gorm 的记录不存在错误转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("database query failed: %w", err)
}
