package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/crowdledger/internal/model"
)

type participantKey struct {
	campaignId int64
	actor      model.Actor
}

// MemoryStore 内存存储，用于测试和开发模式
type MemoryStore struct {
	mu            sync.RWMutex
	campaignLocks map[int64]*sync.Mutex

	nextCampaignId int64
	nextRecordId   atomic.Int64

	campaigns     map[int64]model.CampaignModel
	contributions map[participantKey]model.ContributionModel
	votes         map[participantKey]model.VoteModel
	refunds       []model.RefundRecordModel
	settlements   map[int64]model.SettlementRecordModel
	journal       []model.JournalModel
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaignLocks: make(map[int64]*sync.Mutex),
		campaigns:     make(map[int64]model.CampaignModel),
		contributions: make(map[participantKey]model.ContributionModel),
		votes:         make(map[participantKey]model.VoteModel),
		settlements:   make(map[int64]model.SettlementRecordModel),
	}
}

// CreateCampaign 创建活动
func (s *MemoryStore) CreateCampaign(ctx context.Context, campaign *model.CampaignModel, entry *model.JournalModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCampaignId++
	now := time.Now()
	campaign.Id = s.nextCampaignId
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	s.campaigns[campaign.Id] = *campaign
	s.campaignLocks[campaign.Id] = &sync.Mutex{}

	if entry != nil {
		entry.Id = s.nextRecordId.Add(1)
		entry.CampaignId = campaign.Id
		entry.CreatedAt = now
		s.journal = append(s.journal, *entry)
	}
	return nil
}

// Update 在活动锁内执行事务
func (s *MemoryStore) Update(ctx context.Context, campaignId int64, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	lock, ok := s.campaignLocks[campaignId]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	campaign := s.campaigns[campaignId]
	s.mu.RUnlock()

	tx := &memoryTx{
		store:         s,
		campaign:      campaign,
		contributions: make(map[model.Actor]model.ContributionModel),
		votes:         make(map[model.Actor]model.VoteModel),
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx.commitLocked(time.Now())
	return nil
}

// GetCampaign 获取活动
func (s *MemoryStore) GetCampaign(_ context.Context, id int64) (*model.CampaignModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	campaign, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &campaign, nil
}

// ListCampaigns 按 ID 升序返回所有活动
func (s *MemoryStore) ListCampaigns(_ context.Context) ([]model.CampaignModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	campaigns := make([]model.CampaignModel, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		campaigns = append(campaigns, campaign)
	}
	sort.Slice(campaigns, func(i, j int) bool { return campaigns[i].Id < campaigns[j].Id })
	return campaigns, nil
}

// CountCampaigns 活动总数
func (s *MemoryStore) CountCampaigns(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.campaigns)), nil
}

// ListDueCampaigns 待结算活动
func (s *MemoryStore) ListDueCampaigns(_ context.Context, height int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for id, campaign := range s.campaigns {
		if campaign.Status == model.CampaignStatusActive && campaign.DeadlineHeight <= height {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GetContribution 获取贡献记录
func (s *MemoryStore) GetContribution(_ context.Context, campaignId int64, contributor model.Actor) (*model.ContributionModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contribution, ok := s.contributions[participantKey{campaignId, contributor}]
	if !ok {
		return nil, ErrNotFound
	}
	return &contribution, nil
}

// ListContributions 活动的所有贡献记录
func (s *MemoryStore) ListContributions(_ context.Context, campaignId int64) ([]model.ContributionModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var contributions []model.ContributionModel
	for key, contribution := range s.contributions {
		if key.campaignId == campaignId {
			contributions = append(contributions, contribution)
		}
	}
	sort.Slice(contributions, func(i, j int) bool { return contributions[i].Id < contributions[j].Id })
	return contributions, nil
}

// ListContributionsByActor 某个地址的所有贡献记录
func (s *MemoryStore) ListContributionsByActor(_ context.Context, contributor model.Actor) ([]model.ContributionModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var contributions []model.ContributionModel
	for key, contribution := range s.contributions {
		if key.actor == contributor {
			contributions = append(contributions, contribution)
		}
	}
	sort.Slice(contributions, func(i, j int) bool { return contributions[i].CampaignId < contributions[j].CampaignId })
	return contributions, nil
}

// CountContributors 去重贡献者数量
func (s *MemoryStore) CountContributors(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[model.Actor]struct{})
	for key := range s.contributions {
		seen[key.actor] = struct{}{}
	}
	return int64(len(seen)), nil
}

// GetVote 获取投票记录
func (s *MemoryStore) GetVote(_ context.Context, campaignId int64, voter model.Actor) (*model.VoteModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[participantKey{campaignId, voter}]
	if !ok {
		return nil, ErrNotFound
	}
	return &vote, nil
}

// ListRefundRecords 活动的退款记录
func (s *MemoryStore) ListRefundRecords(_ context.Context, campaignId int64) ([]model.RefundRecordModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []model.RefundRecordModel
	for _, record := range s.refunds {
		if record.CampaignId == campaignId {
			records = append(records, record)
		}
	}
	return records, nil
}

// GetSettlementRecord 活动的提款记录
func (s *MemoryStore) GetSettlementRecord(_ context.Context, campaignId int64) (*model.SettlementRecordModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.settlements[campaignId]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// ListJournal 活动流水
func (s *MemoryStore) ListJournal(_ context.Context, campaignId int64) ([]model.JournalModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []model.JournalModel
	for _, entry := range s.journal {
		if entry.CampaignId == campaignId {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// memoryTx 暂存事务内的写入，提交时一次性应用
type memoryTx struct {
	store *MemoryStore

	campaign      model.CampaignModel
	campaignDirty bool
	contributions map[model.Actor]model.ContributionModel
	votes         map[model.Actor]model.VoteModel
	refunds       []model.RefundRecordModel
	settlement    *model.SettlementRecordModel
	journal       []model.JournalModel
}

func (t *memoryTx) Campaign() *model.CampaignModel {
	campaign := t.campaign
	return &campaign
}

func (t *memoryTx) SaveCampaign(campaign *model.CampaignModel) error {
	if campaign.Id != t.campaign.Id {
		return fmt.Errorf("campaign %d is not locked by this transaction", campaign.Id)
	}
	t.campaign = *campaign
	t.campaignDirty = true
	return nil
}

func (t *memoryTx) Contribution(contributor model.Actor) (*model.ContributionModel, error) {
	if staged, ok := t.contributions[contributor]; ok {
		return &staged, nil
	}
	return t.store.GetContribution(context.Background(), t.campaign.Id, contributor)
}

func (t *memoryTx) SaveContribution(contribution *model.ContributionModel) error {
	if contribution.CampaignId != t.campaign.Id {
		return fmt.Errorf("contribution belongs to campaign %d, locked %d", contribution.CampaignId, t.campaign.Id)
	}
	if contribution.Id == 0 {
		contribution.Id = t.store.nextRecordId.Add(1)
	}
	t.contributions[contribution.Contributor] = *contribution
	return nil
}

func (t *memoryTx) Vote(voter model.Actor) (*model.VoteModel, error) {
	if staged, ok := t.votes[voter]; ok {
		return &staged, nil
	}
	return t.store.GetVote(context.Background(), t.campaign.Id, voter)
}

func (t *memoryTx) CreateVote(vote *model.VoteModel) error {
	if _, err := t.Vote(vote.Voter); err == nil {
		return fmt.Errorf("vote of %s on campaign %d already exists", vote.Voter, vote.CampaignId)
	}
	vote.Id = t.store.nextRecordId.Add(1)
	t.votes[vote.Voter] = *vote
	return nil
}

func (t *memoryTx) CreateRefundRecord(record *model.RefundRecordModel) error {
	record.Id = t.store.nextRecordId.Add(1)
	t.refunds = append(t.refunds, *record)
	return nil
}

func (t *memoryTx) CreateSettlementRecord(record *model.SettlementRecordModel) error {
	if t.settlement != nil {
		return fmt.Errorf("settlement record for campaign %d already staged", record.CampaignId)
	}
	if _, err := t.store.GetSettlementRecord(context.Background(), record.CampaignId); err == nil {
		return fmt.Errorf("settlement record for campaign %d already exists", record.CampaignId)
	}
	record.Id = t.store.nextRecordId.Add(1)
	staged := *record
	t.settlement = &staged
	return nil
}

func (t *memoryTx) AppendJournal(entry *model.JournalModel) error {
	entry.Id = t.store.nextRecordId.Add(1)
	entry.CampaignId = t.campaign.Id
	t.journal = append(t.journal, *entry)
	return nil
}

// commitLocked 应用暂存写入，调用方持有 store.mu 写锁
func (t *memoryTx) commitLocked(now time.Time) {
	s := t.store
	if t.campaignDirty {
		t.campaign.UpdatedAt = now
		s.campaigns[t.campaign.Id] = t.campaign
	}
	for actor, contribution := range t.contributions {
		if contribution.CreatedAt.IsZero() {
			contribution.CreatedAt = now
		}
		contribution.UpdatedAt = now
		s.contributions[participantKey{t.campaign.Id, actor}] = contribution
	}
	for voter, vote := range t.votes {
		vote.CreatedAt = now
		s.votes[participantKey{t.campaign.Id, voter}] = vote
	}
	for _, record := range t.refunds {
		record.CreatedAt = now
		s.refunds = append(s.refunds, record)
	}
	if t.settlement != nil {
		t.settlement.CreatedAt = now
		s.settlements[t.campaign.Id] = *t.settlement
	}
	for _, entry := range t.journal {
		entry.CreatedAt = now
		s.journal = append(s.journal, entry)
	}
}
