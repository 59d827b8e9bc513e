package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

const (
	// BlocksPerDay 按 10 分钟出块估算
	BlocksPerDay    = 144
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// SortBy 列表排序方式
type SortBy string

const (
	SortNewest SortBy = "newest"
	SortOldest SortBy = "oldest"
	SortGoal   SortBy = "goal"
	SortRaised SortBy = "raised"
	SortEnding SortBy = "ending"
)

// ParseSortBy 解析排序方式，空值为 newest
func ParseSortBy(raw string) (SortBy, bool) {
	switch SortBy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortNewest:
		return SortNewest, true
	case SortOldest:
		return SortOldest, true
	case SortGoal:
		return SortGoal, true
	case SortRaised:
		return SortRaised, true
	case SortEnding:
		return SortEnding, true
	}
	return "", false
}

// CampaignFilter 活动列表筛选条件
type CampaignFilter struct {
	Status   model.CampaignStatus // 空值表示全部
	Creator  model.Actor          // 空值表示全部
	Search   string
	MinGoal  int64
	MaxGoal  int64
	SortBy   SortBy
	Page     int
	PageSize int
}

// CampaignPage 分页结果
type CampaignPage struct {
	Campaigns []model.CampaignModel `json:"campaigns"`
	Total     int64                 `json:"total"`
	Page      int                   `json:"page"`
	PageSize  int                   `json:"page_size"`
}

// Progress 活动进度
type Progress struct {
	CampaignId int64   `json:"campaign_id"`
	Percent    float64 `json:"percent"`
	BlocksLeft int64   `json:"blocks_left"`
	DaysLeft   int64   `json:"days_left"`
	Funded     bool    `json:"funded"`
}

// PlatformStats 平台统计
type PlatformStats struct {
	TotalCampaigns      int64 `json:"total_campaigns"`
	ActiveCampaigns     int64 `json:"active_campaigns"`
	SuccessfulCampaigns int64 `json:"successful_campaigns"`
	TotalRaised         int64 `json:"total_raised"`
	TotalContributors   int64 `json:"total_contributors"`
}

// GetCampaign 获取活动
func (l *Ledger) GetCampaign(ctx context.Context, id int64) (*model.CampaignModel, error) {
	campaign, err := l.store.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindCampaignNotFound, "campaign %d does not exist", id)
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return campaign, nil
}

// CampaignCount 活动总数
func (l *Ledger) CampaignCount(ctx context.Context) (int64, error) {
	count, err := l.store.CountCampaigns(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取活动数量失败: %w", err)
	}
	return count, nil
}

// GetContribution 获取贡献记录
func (l *Ledger) GetContribution(ctx context.Context, campaignId int64, contributor model.Actor) (*model.ContributionModel, error) {
	if _, err := l.GetCampaign(ctx, campaignId); err != nil {
		return nil, err
	}
	contribution, err := l.store.GetContribution(ctx, campaignId, contributor)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindContributionNotFound, "%s has no contribution to campaign %d", contributor, campaignId)
		}
		return nil, fmt.Errorf("获取贡献记录失败: %w", err)
	}
	return contribution, nil
}

// ListContributions 活动的贡献记录
func (l *Ledger) ListContributions(ctx context.Context, campaignId int64) ([]model.ContributionModel, error) {
	if _, err := l.GetCampaign(ctx, campaignId); err != nil {
		return nil, err
	}
	contributions, err := l.store.ListContributions(ctx, campaignId)
	if err != nil {
		return nil, fmt.Errorf("获取贡献记录列表失败: %w", err)
	}
	return contributions, nil
}

// ContributionsByActor 某个地址在所有活动中的贡献记录
func (l *Ledger) ContributionsByActor(ctx context.Context, contributor model.Actor) ([]model.ContributionModel, error) {
	if contributor == "" {
		return nil, newError(KindInvalidParameters, "contributor is required")
	}
	contributions, err := l.store.ListContributionsByActor(ctx, contributor)
	if err != nil {
		return nil, fmt.Errorf("获取地址贡献记录失败: %w", err)
	}
	if contributions == nil {
		contributions = []model.ContributionModel{}
	}
	return contributions, nil
}

// FeeRate 当前平台手续费基点
func (l *Ledger) FeeRate(ctx context.Context) (int64, error) {
	rate, err := l.fees.FeeRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("获取平台费率失败: %w", err)
	}
	if err = validateFeeRate(rate); err != nil {
		return 0, err
	}
	return rate, nil
}

// GetVote 获取投票记录，未投票时返回 Voted=false
func (l *Ledger) GetVote(ctx context.Context, campaignId int64, voter model.Actor) (*model.VoteModel, error) {
	if _, err := l.GetCampaign(ctx, campaignId); err != nil {
		return nil, err
	}
	vote, err := l.store.GetVote(ctx, campaignId, voter)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.VoteModel{CampaignId: campaignId, Voter: voter}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取投票记录失败: %w", err)
	}
	return vote, nil
}

// ListRefunds 活动的退款记录
func (l *Ledger) ListRefunds(ctx context.Context, campaignId int64) ([]model.RefundRecordModel, error) {
	if _, err := l.GetCampaign(ctx, campaignId); err != nil {
		return nil, err
	}
	records, err := l.store.ListRefundRecords(ctx, campaignId)
	if err != nil {
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, nil
}

// GetSettlement 活动的提款记录
func (l *Ledger) GetSettlement(ctx context.Context, campaignId int64) (*model.SettlementRecordModel, error) {
	if _, err := l.GetCampaign(ctx, campaignId); err != nil {
		return nil, err
	}
	record, err := l.store.GetSettlementRecord(ctx, campaignId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindSettlementNotFound, "campaign %d has not been claimed", campaignId)
		}
		return nil, fmt.Errorf("获取提款记录失败: %w", err)
	}
	return record, nil
}

// Journal 活动流水
func (l *Ledger) Journal(ctx context.Context, campaignId int64) ([]model.JournalModel, error) {
	if _, err := l.GetCampaign(ctx, campaignId); err != nil {
		return nil, err
	}
	entries, err := l.store.ListJournal(ctx, campaignId)
	if err != nil {
		return nil, fmt.Errorf("获取活动流水失败: %w", err)
	}
	return entries, nil
}

// ListCampaigns 按条件筛选、排序并分页
func (l *Ledger) ListCampaigns(ctx context.Context, filter CampaignFilter) (*CampaignPage, error) {
	campaigns, err := l.store.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取活动列表失败: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]model.CampaignModel, 0, len(campaigns))
	for _, c := range campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Creator != "" && c.Creator != filter.Creator {
			continue
		}
		if filter.MinGoal > 0 && c.Goal < filter.MinGoal {
			continue
		}
		if filter.MaxGoal > 0 && c.Goal > filter.MaxGoal {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		matched = append(matched, c)
	}

	sortCampaigns(matched, filter.SortBy)

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	result := &CampaignPage{
		Campaigns: []model.CampaignModel{},
		Total:     int64(len(matched)),
		Page:      page,
		PageSize:  pageSize,
	}
	// 先按页数比较，超出末页直接返回空页，避免 (page-1)*pageSize 溢出
	pages := (len(matched) + pageSize - 1) / pageSize
	if page-1 < pages {
		start := (page - 1) * pageSize
		end := start + pageSize
		if end > len(matched) {
			end = len(matched)
		}
		result.Campaigns = matched[start:end]
	}
	return result, nil
}

func sortCampaigns(campaigns []model.CampaignModel, by SortBy) {
	less := func(a, b *model.CampaignModel) bool {
		if a.CreatedHeight != b.CreatedHeight {
			return a.CreatedHeight > b.CreatedHeight
		}
		return a.Id > b.Id
	}
	switch by {
	case SortOldest:
		less = func(a, b *model.CampaignModel) bool {
			if a.CreatedHeight != b.CreatedHeight {
				return a.CreatedHeight < b.CreatedHeight
			}
			return a.Id < b.Id
		}
	case SortGoal:
		less = func(a, b *model.CampaignModel) bool {
			if a.Goal != b.Goal {
				return a.Goal > b.Goal
			}
			return a.Id < b.Id
		}
	case SortRaised:
		less = func(a, b *model.CampaignModel) bool {
			if a.Raised != b.Raised {
				return a.Raised > b.Raised
			}
			return a.Id < b.Id
		}
	case SortEnding:
		less = func(a, b *model.CampaignModel) bool {
			if a.DeadlineHeight != b.DeadlineHeight {
				return a.DeadlineHeight < b.DeadlineHeight
			}
			return a.Id < b.Id
		}
	}
	sort.SliceStable(campaigns, func(i, j int) bool {
		return less(&campaigns[i], &campaigns[j])
	})
}

// CampaignProgress 计算筹款进度和剩余时间
func CampaignProgress(c *model.CampaignModel, height int64) Progress {
	progress := Progress{CampaignId: c.Id, Funded: c.Raised >= c.Goal}
	if c.Goal > 0 {
		progress.Percent = float64(c.Raised) / float64(c.Goal) * 100
	}
	if c.Status == model.CampaignStatusActive && height < c.DeadlineHeight {
		progress.BlocksLeft = c.DeadlineHeight - height
		progress.DaysLeft = (progress.BlocksLeft + BlocksPerDay - 1) / BlocksPerDay
	}
	return progress
}

// Progress 获取活动进度
func (l *Ledger) Progress(ctx context.Context, campaignId, height int64) (*Progress, error) {
	campaign, err := l.GetCampaign(ctx, campaignId)
	if err != nil {
		return nil, err
	}
	progress := CampaignProgress(campaign, height)
	return &progress, nil
}

// Stats 平台统计信息
func (l *Ledger) Stats(ctx context.Context) (*PlatformStats, error) {
	campaigns, err := l.store.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取平台统计失败: %w", err)
	}
	contributors, err := l.store.CountContributors(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取贡献者数量失败: %w", err)
	}

	stats := &PlatformStats{
		TotalCampaigns:    int64(len(campaigns)),
		TotalContributors: contributors,
	}
	for _, c := range campaigns {
		stats.TotalRaised += c.Raised
		switch c.Status {
		case model.CampaignStatusActive:
			stats.ActiveCampaigns++
		case model.CampaignStatusSuccessful:
			stats.SuccessfulCampaigns++
		}
	}
	return stats, nil
}
