package ledger

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/metrics"
	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

// Contribute 向进行中的活动贡献资金。最低贡献额只约束首次贡献，之后追加任意正数金额
func (l *Ledger) Contribute(ctx context.Context, campaignId int64, contributor model.Actor, amount, height int64) (contribution *model.ContributionModel, err error) {
	defer observe("contribute", time.Now(), &err)

	if err = requireActor(contributor, "contributor"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, newError(KindInvalidAmount, "amount must be positive, got %d", amount)
	}

	err = l.update(ctx, campaignId, func(tx repository.Tx) error {
		c := tx.Campaign()
		if c.Status != model.CampaignStatusActive {
			return newError(KindCampaignNotActive, "campaign %d is %s", c.Id, c.Status)
		}
		if height >= c.DeadlineHeight {
			return newError(KindCampaignExpired, "campaign %d ended at height %d", c.Id, c.DeadlineHeight)
		}

		current, err := tx.Contribution(contributor)
		if errors.Is(err, repository.ErrNotFound) {
			current = &model.ContributionModel{
				CampaignId:  c.Id,
				Contributor: contributor,
				FirstHeight: height,
			}
		} else if err != nil {
			return err
		}

		if current.Amount == 0 && amount < c.MinContribution {
			return newError(KindBelowMinimumContribution, "first contribution must be at least %d, got %d", c.MinContribution, amount)
		}
		if c.Raised > math.MaxInt64-amount || c.TotalContributed > math.MaxInt64-amount || current.Amount > math.MaxInt64-amount {
			return newError(KindInvalidAmount, "amount %d overflows campaign totals", amount)
		}

		current.Amount += amount
		current.VotingPower += amount
		current.LastHeight = height
		c.Raised += amount
		c.TotalContributed += amount

		if err := tx.SaveContribution(current); err != nil {
			return err
		}
		if err := tx.SaveCampaign(c); err != nil {
			return err
		}
		if err := tx.AppendJournal(journalEntry(model.JournalTypeContributed, contributor, amount, height, nil)); err != nil {
			return err
		}
		contribution = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordFunds("contributed", amount)
	logger.Debug("Contribution of %d from %s to campaign %d, cumulative %d", amount, contributor, campaignId, contribution.Amount)
	return contribution, nil
}

// RequestRefund 退还贡献者的全部贡献并从 raised 中扣除
func (l *Ledger) RequestRefund(ctx context.Context, campaignId int64, contributor model.Actor, height int64) (amount int64, err error) {
	defer observe("request_refund", time.Now(), &err)

	if err = requireActor(contributor, "contributor"); err != nil {
		return 0, err
	}

	err = l.update(ctx, campaignId, func(tx repository.Tx) error {
		c := tx.Campaign()

		contribution, err := tx.Contribution(contributor)
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNothingToRefund, "%s has no contribution to campaign %d", contributor, c.Id)
		} else if err != nil {
			return err
		}
		if contribution.Amount == 0 {
			return newError(KindNothingToRefund, "%s has no contribution to campaign %d", contributor, c.Id)
		}
		if contribution.Refunded {
			return newError(KindAlreadyRefunded, "contribution of %s to campaign %d was already refunded", contributor, c.Id)
		}

		reason, ok := refundReason(c, height)
		if !ok {
			return newError(KindCampaignNotRefundable, "campaign %d is %s", c.Id, c.Status)
		}

		amount = contribution.Amount
		contribution.Refunded = true
		contribution.RefundedAmount = amount
		contribution.VotingPower = 0
		c.Raised -= amount

		if err := tx.SaveContribution(contribution); err != nil {
			return err
		}
		if err := tx.SaveCampaign(c); err != nil {
			return err
		}
		record := &model.RefundRecordModel{
			CampaignId:     c.Id,
			ContributionId: contribution.Id,
			Contributor:    contributor,
			Amount:         amount,
			Height:         height,
			RefundReason:   reason,
		}
		if err := tx.CreateRefundRecord(record); err != nil {
			return err
		}
		return tx.AppendJournal(journalEntry(model.JournalTypeRefunded, contributor, amount, height, map[string]interface{}{
			"reason": reason,
		}))
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordFunds("refunded", amount)
	logger.Info("Refunded %d to %s from campaign %d", amount, contributor, campaignId)
	return amount, nil
}

// refundReason 活动失败、被取消，或投票结束且未通过时可以退款
func refundReason(c *model.CampaignModel, height int64) (model.RefundReason, bool) {
	switch c.Status {
	case model.CampaignStatusFailed:
		return model.RefundReasonFailed, true
	case model.CampaignStatusCancelled:
		return model.RefundReasonCancelled, true
	case model.CampaignStatusSuccessful:
		if c.VotingEnabled && c.VotingConcluded(height) && !c.VoteApproved() {
			return model.RefundReasonVoteRejected, true
		}
	}
	return "", false
}
