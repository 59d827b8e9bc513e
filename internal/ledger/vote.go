package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/metrics"
	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

// CastVote 按当前 voting power 投票，每个投票人每个活动只能投一次，权重在投票时固定
func (l *Ledger) CastVote(ctx context.Context, campaignId int64, voter model.Actor, voteFor bool, height int64) (vote *model.VoteModel, err error) {
	defer observe("cast_vote", time.Now(), &err)

	if err = requireActor(voter, "voter"); err != nil {
		return nil, err
	}

	err = l.update(ctx, campaignId, func(tx repository.Tx) error {
		c := tx.Campaign()
		if !c.VotingEnabled {
			return newError(KindVotingDisabled, "campaign %d has voting disabled", c.Id)
		}
		if height >= c.VotingDeadlineHeight {
			return newError(KindVotingClosed, "voting on campaign %d closed at height %d", c.Id, c.VotingDeadlineHeight)
		}

		if _, err := tx.Vote(voter); err == nil {
			return newError(KindAlreadyVoted, "%s already voted on campaign %d", voter, c.Id)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		contribution, err := tx.Contribution(voter)
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNoVotingPower, "%s has not contributed to campaign %d", voter, c.Id)
		} else if err != nil {
			return err
		}
		if contribution.VotingPower <= 0 {
			return newError(KindNoVotingPower, "%s has no voting power on campaign %d", voter, c.Id)
		}

		cast := &model.VoteModel{
			CampaignId: c.Id,
			Voter:      voter,
			Voted:      true,
			VoteFor:    voteFor,
			Weight:     contribution.VotingPower,
			CastHeight: height,
		}
		if err := tx.CreateVote(cast); err != nil {
			return err
		}
		if voteFor {
			c.VotesFor += cast.Weight
		} else {
			c.VotesAgainst += cast.Weight
		}
		if err := tx.SaveCampaign(c); err != nil {
			return err
		}
		if err := tx.AppendJournal(journalEntry(model.JournalTypeVoted, voter, cast.Weight, height, map[string]interface{}{
			"vote_for": voteFor,
		})); err != nil {
			return err
		}
		vote = cast
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Vote by %s on campaign %d: for=%t weight=%d", voter, campaignId, voteFor, vote.Weight)
	return vote, nil
}

// ClaimFunds 发起人提取成功活动的资金，扣除平台手续费，只能提取一次
func (l *Ledger) ClaimFunds(ctx context.Context, campaignId int64, actor model.Actor, height int64) (payout *Payout, err error) {
	defer observe("claim_funds", time.Now(), &err)

	// 费率在加锁前获取
	rate, err := l.FeeRate(ctx)
	if err != nil {
		return nil, err
	}

	err = l.update(ctx, campaignId, func(tx repository.Tx) error {
		c := tx.Campaign()
		if actor != c.Creator {
			return newError(KindUnauthorized, "only the creator can claim campaign %d", c.Id)
		}
		if c.Status != model.CampaignStatusSuccessful {
			return newError(KindCampaignNotSuccessful, "campaign %d is %s", c.Id, c.Status)
		}
		if c.Claimed {
			return newError(KindAlreadyClaimed, "funds of campaign %d were already claimed", c.Id)
		}
		if c.VotingEnabled {
			if !c.VotingConcluded(height) {
				return newError(KindVotingNotConcluded, "voting on campaign %d ends at height %d", c.Id, c.VotingDeadlineHeight)
			}
			if !c.VoteApproved() {
				return newError(KindVoteRejected, "campaign %d release rejected (%d for, %d against)", c.Id, c.VotesFor, c.VotesAgainst)
			}
		}

		fee := computeFee(c.Raised, rate)
		result := &Payout{Gross: c.Raised, Fee: fee, Net: c.Raised - fee, FeeRate: rate}

		c.Claimed = true
		if err := tx.SaveCampaign(c); err != nil {
			return err
		}
		record := &model.SettlementRecordModel{
			CampaignId:    c.Id,
			Creator:       c.Creator,
			TotalAmount:   result.Gross,
			PlatformFee:   result.Fee,
			FeeRate:       rate,
			CreatorAmount: result.Net,
			Height:        height,
		}
		if err := tx.CreateSettlementRecord(record); err != nil {
			return err
		}
		if err := tx.AppendJournal(journalEntry(model.JournalTypeClaimed, actor, result.Net, height, result)); err != nil {
			return err
		}
		payout = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordFunds("claimed", payout.Net)
	metrics.RecordFunds("fee", payout.Fee)
	logger.Info("Campaign %d claimed by %s: gross %d, fee %d, net %d", campaignId, actor, payout.Gross, payout.Fee, payout.Net)
	return payout, nil
}
