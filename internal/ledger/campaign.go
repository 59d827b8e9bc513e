package ledger

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/metrics"
	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

const (
	MaxTitleLength       = 64
	MaxDescriptionLength = 256
)

// CreateCampaignParams 创建活动参数
type CreateCampaignParams struct {
	Creator              model.Actor
	Title                string
	Description          string
	Goal                 int64
	DurationBlocks       int64
	VotingEnabled        bool
	VotingDurationBlocks int64
	MinContribution      int64
}

// CreateCampaign 创建活动
func (l *Ledger) CreateCampaign(ctx context.Context, params CreateCampaignParams, height int64) (campaign *model.CampaignModel, err error) {
	defer observe("create_campaign", time.Now(), &err)

	// 验证活动数据
	if err = l.validateCampaign(params, height); err != nil {
		return nil, err
	}

	votingDuration := int64(0)
	if params.VotingEnabled {
		votingDuration = params.VotingDurationBlocks
	}
	deadline := height + params.DurationBlocks

	campaign = &model.CampaignModel{
		Creator:              params.Creator,
		Title:                params.Title,
		Description:          params.Description,
		Goal:                 params.Goal,
		MinContribution:      params.MinContribution,
		CreatedHeight:        height,
		DeadlineHeight:       deadline,
		Status:               model.CampaignStatusActive,
		VotingEnabled:        params.VotingEnabled,
		VotingDeadlineHeight: deadline + votingDuration,
	}

	entry := journalEntry(model.JournalTypeCreated, params.Creator, params.Goal, height, map[string]interface{}{
		"deadline_height":        campaign.DeadlineHeight,
		"voting_deadline_height": campaign.VotingDeadlineHeight,
		"min_contribution":       campaign.MinContribution,
	})
	if err = l.store.CreateCampaign(ctx, campaign, entry); err != nil {
		return nil, err
	}

	logger.Info("Campaign %d created by %s, goal %d, deadline %d", campaign.Id, campaign.Creator, campaign.Goal, campaign.DeadlineHeight)
	return campaign, nil
}

// validateCampaign 验证活动数据
func (l *Ledger) validateCampaign(params CreateCampaignParams, height int64) error {
	if err := requireActor(params.Creator, "creator"); err != nil {
		return err
	}
	if strings.TrimSpace(params.Title) == "" {
		return newError(KindInvalidParameters, "title is required")
	}
	if n := codeUnits(params.Title); n > MaxTitleLength {
		return newError(KindInvalidParameters, "title is %d code units, at most %d allowed", n, MaxTitleLength)
	}
	if n := codeUnits(params.Description); n > MaxDescriptionLength {
		return newError(KindInvalidParameters, "description is %d code units, at most %d allowed", n, MaxDescriptionLength)
	}
	if params.Goal <= 0 {
		return newError(KindInvalidParameters, "goal must be positive")
	}
	if l.limits.MaxGoal > 0 && params.Goal > l.limits.MaxGoal {
		return newError(KindInvalidParameters, "goal exceeds %d", l.limits.MaxGoal)
	}
	if params.MinContribution <= 0 {
		return newError(KindInvalidParameters, "minimum contribution must be positive")
	}
	if params.DurationBlocks <= 0 {
		return newError(KindInvalidParameters, "duration must be positive")
	}
	if l.limits.MinDurationBlocks > 0 && params.DurationBlocks < l.limits.MinDurationBlocks {
		return newError(KindInvalidParameters, "duration must be at least %d blocks", l.limits.MinDurationBlocks)
	}
	if l.limits.MaxDurationBlocks > 0 && params.DurationBlocks > l.limits.MaxDurationBlocks {
		return newError(KindInvalidParameters, "duration must be at most %d blocks", l.limits.MaxDurationBlocks)
	}

	votingDuration := int64(0)
	if params.VotingEnabled {
		if params.VotingDurationBlocks <= 0 {
			return newError(KindInvalidParameters, "voting duration must be positive when voting is enabled")
		}
		if l.limits.MaxVotingDurationBlocks > 0 && params.VotingDurationBlocks > l.limits.MaxVotingDurationBlocks {
			return newError(KindInvalidParameters, "voting duration must be at most %d blocks", l.limits.MaxVotingDurationBlocks)
		}
		votingDuration = params.VotingDurationBlocks
	}

	if height < 0 {
		return newError(KindInvalidParameters, "height must not be negative")
	}
	if height > math.MaxInt64-params.DurationBlocks-votingDuration {
		return newError(KindInvalidParameters, "deadline overflows block height range")
	}
	return nil
}

// codeUnits 按 UTF-16 编码单元计算长度
func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// SettleCampaign 截止后结算活动。已结束的活动原样返回，重复触发不会改变状态
func (l *Ledger) SettleCampaign(ctx context.Context, campaignId, height int64) (campaign *model.CampaignModel, err error) {
	defer observe("settle_campaign", time.Now(), &err)

	transitioned := false
	err = l.update(ctx, campaignId, func(tx repository.Tx) error {
		c := tx.Campaign()
		if c.Status.IsTerminal() {
			campaign = c
			return nil
		}
		if height < c.DeadlineHeight {
			return newError(KindInvalidState, "campaign %d ends at height %d, current %d", c.Id, c.DeadlineHeight, height)
		}

		if c.Raised >= c.Goal {
			c.Status = model.CampaignStatusSuccessful
		} else {
			c.Status = model.CampaignStatusFailed
		}
		c.SettledHeight = height
		if err := tx.SaveCampaign(c); err != nil {
			return err
		}
		entry := journalEntry(model.JournalTypeSettled, "", c.Raised, height, map[string]interface{}{
			"status": c.Status,
			"goal":   c.Goal,
		})
		if err := tx.AppendJournal(entry); err != nil {
			return err
		}
		campaign = c
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		metrics.RecordSettled(string(campaign.Status))
		logger.Info("Campaign %d settled as %s at height %d (raised %d / goal %d)", campaign.Id, campaign.Status, height, campaign.Raised, campaign.Goal)
	}
	return campaign, nil
}

// CancelCampaign 发起人取消进行中的活动，之后所有贡献者可以退款
func (l *Ledger) CancelCampaign(ctx context.Context, campaignId int64, actor model.Actor, height int64) (campaign *model.CampaignModel, err error) {
	defer observe("cancel_campaign", time.Now(), &err)

	err = l.update(ctx, campaignId, func(tx repository.Tx) error {
		c := tx.Campaign()
		if actor != c.Creator {
			return newError(KindUnauthorized, "only the creator can cancel campaign %d", c.Id)
		}
		if c.Status != model.CampaignStatusActive {
			return newError(KindInvalidState, "campaign %d is %s", c.Id, c.Status)
		}

		c.Status = model.CampaignStatusCancelled
		c.SettledHeight = height
		if err := tx.SaveCampaign(c); err != nil {
			return err
		}
		if err := tx.AppendJournal(journalEntry(model.JournalTypeCancelled, actor, c.Raised, height, nil)); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSettled(string(campaign.Status))
	logger.Info("Campaign %d cancelled by %s at height %d with %d raised", campaign.Id, actor, height, campaign.Raised)
	return campaign, nil
}
