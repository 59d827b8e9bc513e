package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

const (
	creator model.Actor = "SP-creator"
	alice   model.Actor = "SP-alice"
	bob     model.Actor = "SP-bob"
	carol   model.Actor = "SP-carol"
)

func newTestLedger() (*Ledger, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return New(store, StaticFeePolicy(DefaultFeeRate)), store
}

func createCampaign(t *testing.T, l *Ledger, params CreateCampaignParams, height int64) *model.CampaignModel {
	t.Helper()
	if params.Creator == "" {
		params.Creator = creator
	}
	if params.Title == "" {
		params.Title = "Community garden"
	}
	c, err := l.CreateCampaign(context.Background(), params, height)
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return c
}

func contribute(t *testing.T, l *Ledger, id int64, actor model.Actor, amount, height int64) *model.ContributionModel {
	t.Helper()
	c, err := l.Contribute(context.Background(), id, actor, amount, height)
	if err != nil {
		t.Fatalf("contribute %d from %s: %v", amount, actor, err)
	}
	return c
}

func expectKind(t *testing.T, err error, want *Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want.Kind)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v", want.Kind, err)
	}
}

// checkBalances 校验 raised 与贡献之和一致、投票权重不超过累计贡献
func checkBalances(t *testing.T, l *Ledger, id int64) {
	t.Helper()
	ctx := context.Background()
	c, err := l.GetCampaign(ctx, id)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	contributions, err := l.ListContributions(ctx, id)
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	var live, total int64
	for _, contribution := range contributions {
		total += contribution.Amount
		if !contribution.Refunded {
			live += contribution.Amount
		}
		if contribution.VotingPower > contribution.Amount {
			t.Fatalf("%s voting power %d exceeds amount %d", contribution.Contributor, contribution.VotingPower, contribution.Amount)
		}
	}
	if c.Raised != live {
		t.Fatalf("raised = %d, want sum of live contributions %d", c.Raised, live)
	}
	if c.TotalContributed != total {
		t.Fatalf("total contributed = %d, want %d", c.TotalContributed, total)
	}
	if c.VotesFor+c.VotesAgainst > c.TotalContributed {
		t.Fatalf("votes %d+%d exceed total contributed %d", c.VotesFor, c.VotesAgainst, c.TotalContributed)
	}
}

func TestScenarioSuccessfulCampaign(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	c := createCampaign(t, l, CreateCampaignParams{Goal: 1000, MinContribution: 10, DurationBlocks: 100}, 1000)
	if c.Id != 1 || c.DeadlineHeight != 1100 || c.VotingDeadlineHeight != 1100 {
		t.Fatalf("unexpected campaign %+v", c)
	}

	contribute(t, l, c.Id, alice, 600, 1010)
	contribute(t, l, c.Id, bob, 500, 1020)

	settled, err := l.SettleCampaign(ctx, c.Id, 1100)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != model.CampaignStatusSuccessful || settled.Raised != 1100 {
		t.Fatalf("status = %s raised = %d, want successful 1100", settled.Status, settled.Raised)
	}
	checkBalances(t, l, c.Id)

	// 无投票的成功活动不可退款
	_, err = l.RequestRefund(ctx, c.Id, alice, 1200)
	expectKind(t, err, ErrCampaignNotRefundable)

	payout, err := l.ClaimFunds(ctx, c.Id, creator, 1101)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if payout.Gross != 1100 || payout.Fee != 27 || payout.Net != 1073 {
		t.Fatalf("payout = %+v", payout)
	}
	record, err := l.GetSettlement(ctx, c.Id)
	if err != nil {
		t.Fatalf("settlement record: %v", err)
	}
	if record.PlatformFee != 27 || record.CreatorAmount != 1073 || record.FeeRate != DefaultFeeRate {
		t.Fatalf("settlement record = %+v", record)
	}
}

func TestScenarioFailedCampaignRefunds(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	c := createCampaign(t, l, CreateCampaignParams{Goal: 1000, MinContribution: 10, DurationBlocks: 100}, 0)
	contribute(t, l, c.Id, alice, 250, 10)
	contribute(t, l, c.Id, bob, 150, 20)

	settled, err := l.SettleCampaign(ctx, c.Id, 150)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != model.CampaignStatusFailed {
		t.Fatalf("status = %s, want failed", settled.Status)
	}

	_, err = l.ClaimFunds(ctx, c.Id, creator, 160)
	expectKind(t, err, ErrCampaignNotSuccessful)

	for actor, want := range map[model.Actor]int64{alice: 250, bob: 150} {
		got, err := l.RequestRefund(ctx, c.Id, actor, 160)
		if err != nil {
			t.Fatalf("refund %s: %v", actor, err)
		}
		if got != want {
			t.Fatalf("refund %s = %d, want %d", actor, got, want)
		}
		checkBalances(t, l, c.Id)
	}

	_, err = l.RequestRefund(ctx, c.Id, carol, 170)
	expectKind(t, err, ErrNothingToRefund)
	_, err = l.RequestRefund(ctx, c.Id, alice, 170)
	expectKind(t, err, ErrAlreadyRefunded)

	after, _ := l.GetCampaign(ctx, c.Id)
	if after.Raised != 0 || after.Status != model.CampaignStatusFailed {
		t.Fatalf("after refunds raised = %d status = %s", after.Raised, after.Status)
	}
	records, err := l.ListRefunds(ctx, c.Id)
	if err != nil || len(records) != 2 {
		t.Fatalf("refund records = %v, %v", records, err)
	}
	if records[0].RefundReason != model.RefundReasonFailed {
		t.Fatalf("reason = %s", records[0].RefundReason)
	}
}

func TestScenarioVotingReleasesFunds(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	c := createCampaign(t, l, CreateCampaignParams{
		Goal: 100, MinContribution: 10, DurationBlocks: 100,
		VotingEnabled: true, VotingDurationBlocks: 50,
	}, 0)
	if c.VotingDeadlineHeight != 150 {
		t.Fatalf("voting deadline = %d, want 150", c.VotingDeadlineHeight)
	}
	contribute(t, l, c.Id, alice, 100, 10)
	contribute(t, l, c.Id, bob, 50, 20)
	if _, err := l.SettleCampaign(ctx, c.Id, 100); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if _, err := l.CastVote(ctx, c.Id, alice, true, 110); err != nil {
		t.Fatalf("vote alice: %v", err)
	}
	if _, err := l.CastVote(ctx, c.Id, bob, false, 120); err != nil {
		t.Fatalf("vote bob: %v", err)
	}

	_, err := l.ClaimFunds(ctx, c.Id, creator, 149)
	expectKind(t, err, ErrVotingNotConcluded)

	_, err = l.CastVote(ctx, c.Id, carol, true, 150)
	expectKind(t, err, ErrVotingClosed)

	payout, err := l.ClaimFunds(ctx, c.Id, creator, 150)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if payout.Gross != 150 || payout.Fee != 3 || payout.Net != 147 {
		t.Fatalf("payout = %+v", payout)
	}

	_, err = l.ClaimFunds(ctx, c.Id, creator, 151)
	expectKind(t, err, ErrAlreadyClaimed)

	after, _ := l.GetCampaign(ctx, c.Id)
	if after.VotesFor != 100 || after.VotesAgainst != 50 || !after.Claimed {
		t.Fatalf("after claim %+v", after)
	}
	checkBalances(t, l, c.Id)
}

func TestScenarioCancelledCampaign(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	c := createCampaign(t, l, CreateCampaignParams{Goal: 1000, MinContribution: 10, DurationBlocks: 100}, 0)
	contribute(t, l, c.Id, alice, 120, 5)
	contribute(t, l, c.Id, bob, 80, 6)

	_, err := l.CancelCampaign(ctx, c.Id, alice, 7)
	expectKind(t, err, ErrUnauthorized)

	cancelled, err := l.CancelCampaign(ctx, c.Id, creator, 7)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.CampaignStatusCancelled || cancelled.Raised != 200 {
		t.Fatalf("cancelled = %+v", cancelled)
	}

	_, err = l.Contribute(ctx, c.Id, carol, 50, 8)
	expectKind(t, err, ErrCampaignNotActive)
	_, err = l.CancelCampaign(ctx, c.Id, creator, 9)
	expectKind(t, err, ErrInvalidState)

	var refunded int64
	for _, actor := range []model.Actor{alice, bob} {
		amount, err := l.RequestRefund(ctx, c.Id, actor, 10)
		if err != nil {
			t.Fatalf("refund %s: %v", actor, err)
		}
		refunded += amount
	}
	if refunded != 200 {
		t.Fatalf("refunded = %d, want 200", refunded)
	}
	checkBalances(t, l, c.Id)

	// 取消后再次结算返回原状态
	settled, err := l.SettleCampaign(ctx, c.Id, 500)
	if err != nil || settled.Status != model.CampaignStatusCancelled {
		t.Fatalf("settle after cancel = %v, %v", settled, err)
	}
}

func TestVoteRejectedUnlocksRefunds(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	c := createCampaign(t, l, CreateCampaignParams{
		Goal: 100, MinContribution: 1, DurationBlocks: 10,
		VotingEnabled: true, VotingDurationBlocks: 10,
	}, 0)
	contribute(t, l, c.Id, alice, 40, 1)
	contribute(t, l, c.Id, bob, 60, 2)
	if _, err := l.SettleCampaign(ctx, c.Id, 10); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := l.CastVote(ctx, c.Id, alice, true, 11); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := l.CastVote(ctx, c.Id, bob, false, 12); err != nil {
		t.Fatalf("vote: %v", err)
	}

	_, err := l.RequestRefund(ctx, c.Id, alice, 15)
	expectKind(t, err, ErrCampaignNotRefundable)

	_, err = l.ClaimFunds(ctx, c.Id, creator, 20)
	expectKind(t, err, ErrVoteRejected)

	amount, err := l.RequestRefund(ctx, c.Id, bob, 20)
	if err != nil || amount != 60 {
		t.Fatalf("refund = %d, %v", amount, err)
	}
	records, _ := l.ListRefunds(ctx, c.Id)
	if len(records) != 1 || records[0].RefundReason != model.RefundReasonVoteRejected {
		t.Fatalf("records = %+v", records)
	}
	checkBalances(t, l, c.Id)
}

func TestTiedVoteIsRejected(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	c := createCampaign(t, l, CreateCampaignParams{
		Goal: 10, MinContribution: 1, DurationBlocks: 10,
		VotingEnabled: true, VotingDurationBlocks: 5,
	}, 0)
	contribute(t, l, c.Id, alice, 50, 1)
	contribute(t, l, c.Id, bob, 50, 1)
	l.SettleCampaign(ctx, c.Id, 10)
	l.CastVote(ctx, c.Id, alice, true, 11)
	l.CastVote(ctx, c.Id, bob, false, 11)

	_, err := l.ClaimFunds(ctx, c.Id, creator, 15)
	expectKind(t, err, ErrVoteRejected)
}

func TestCreateCampaignValidation(t *testing.T) {
	long := ""
	for i := 0; i < 65; i++ {
		long += "a"
	}
	emoji := ""
	for i := 0; i < 33; i++ {
		emoji += "😀"
	}
	valid := CreateCampaignParams{Creator: creator, Title: "t", Goal: 10, MinContribution: 1, DurationBlocks: 10}

	tests := []struct {
		name   string
		mutate func(p *CreateCampaignParams)
		height int64
	}{
		{"empty title", func(p *CreateCampaignParams) { p.Title = "  " }, 0},
		{"title too long", func(p *CreateCampaignParams) { p.Title = long }, 0},
		{"title counts utf16 units", func(p *CreateCampaignParams) { p.Title = emoji }, 0},
		{"description too long", func(p *CreateCampaignParams) { p.Description = long + long + long + long }, 0},
		{"zero goal", func(p *CreateCampaignParams) { p.Goal = 0 }, 0},
		{"negative min contribution", func(p *CreateCampaignParams) { p.MinContribution = -1 }, 0},
		{"zero duration", func(p *CreateCampaignParams) { p.DurationBlocks = 0 }, 0},
		{"voting without duration", func(p *CreateCampaignParams) { p.VotingEnabled = true }, 0},
		{"missing creator", func(p *CreateCampaignParams) { p.Creator = "" }, 0},
		{"negative height", func(p *CreateCampaignParams) {}, -1},
		{"deadline overflow", func(p *CreateCampaignParams) {}, math.MaxInt64 - 5},
	}

	l, _ := newTestLedger()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			_, err := l.CreateCampaign(context.Background(), params, tt.height)
			expectKind(t, err, ErrInvalidParameters)
		})
	}

	// 32 个 emoji 恰好 64 个编码单元
	params := valid
	params.Title = emoji[:len(emoji)-len("😀")]
	if _, err := l.CreateCampaign(context.Background(), params, 0); err != nil {
		t.Fatalf("64 code unit title rejected: %v", err)
	}
	count, _ := l.CampaignCount(context.Background())
	if count != 1 {
		t.Fatalf("campaign count = %d, want 1", count)
	}
}

func TestCreateCampaignLimits(t *testing.T) {
	store := repository.NewMemoryStore()
	l := New(store, nil, WithLimits(Limits{
		MinDurationBlocks:       144,
		MaxDurationBlocks:       144000,
		MaxVotingDurationBlocks: 14400,
		MaxGoal:                 1_000_000,
	}))
	base := CreateCampaignParams{Creator: creator, Title: "t", Goal: 10, MinContribution: 1, DurationBlocks: 144}

	cases := map[string]func(p *CreateCampaignParams){
		"short":       func(p *CreateCampaignParams) { p.DurationBlocks = 100 },
		"long":        func(p *CreateCampaignParams) { p.DurationBlocks = 144001 },
		"voting long": func(p *CreateCampaignParams) { p.VotingEnabled = true; p.VotingDurationBlocks = 14401 },
		"goal":        func(p *CreateCampaignParams) { p.Goal = 1_000_001 },
	}
	for name, mutate := range cases {
		params := base
		mutate(&params)
		_, err := l.CreateCampaign(context.Background(), params, 0)
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("%s: err = %v, want InvalidParameters", name, err)
		}
	}
	if _, err := l.CreateCampaign(context.Background(), base, 0); err != nil {
		t.Fatalf("valid campaign rejected: %v", err)
	}
}

func TestCampaignIdsAreMonotonic(t *testing.T) {
	l, _ := newTestLedger()
	var last int64
	for i := 0; i < 5; i++ {
		c := createCampaign(t, l, CreateCampaignParams{Goal: 10, MinContribution: 1, DurationBlocks: 10}, int64(i))
		if c.Id <= last {
			t.Fatalf("id %d not greater than %d", c.Id, last)
		}
		last = c.Id
	}
}

func TestContributeRules(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{Goal: 1000, MinContribution: 10, DurationBlocks: 100}, 0)

	_, err := l.Contribute(ctx, c.Id, alice, 0, 1)
	expectKind(t, err, ErrInvalidAmount)
	_, err = l.Contribute(ctx, c.Id, alice, -5, 1)
	expectKind(t, err, ErrInvalidAmount)
	_, err = l.Contribute(ctx, c.Id, alice, 9, 1)
	expectKind(t, err, ErrBelowMinimumContribution)
	_, err = l.Contribute(ctx, 99, alice, 10, 1)
	expectKind(t, err, ErrCampaignNotFound)
	_, err = l.Contribute(ctx, c.Id, "", 10, 1)
	expectKind(t, err, ErrInvalidParameters)

	contribute(t, l, c.Id, alice, 10, 1)
	// 首次达到最低额后追加任意正数
	got := contribute(t, l, c.Id, alice, 1, 2)
	if got.Amount != 11 || got.VotingPower != 11 || got.FirstHeight != 1 || got.LastHeight != 2 {
		t.Fatalf("contribution = %+v", got)
	}

	_, err = l.Contribute(ctx, c.Id, bob, 10, 100)
	expectKind(t, err, ErrCampaignExpired)

	_, err = l.Contribute(ctx, c.Id, bob, math.MaxInt64, 50)
	expectKind(t, err, ErrInvalidAmount)
	checkBalances(t, l, c.Id)
}

func TestSettleIdempotent(t *testing.T) {
	l, store := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{Goal: 100, MinContribution: 1, DurationBlocks: 10}, 0)
	contribute(t, l, c.Id, alice, 100, 1)

	_, err := l.SettleCampaign(ctx, c.Id, 9)
	expectKind(t, err, ErrInvalidState)

	first, err := l.SettleCampaign(ctx, c.Id, 10)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	entries, _ := store.ListJournal(ctx, c.Id)

	second, err := l.SettleCampaign(ctx, c.Id, 20)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if second.Status != first.Status || second.SettledHeight != 10 || second.Raised != first.Raised {
		t.Fatalf("second settle drifted: %+v vs %+v", second, first)
	}
	again, _ := store.ListJournal(ctx, c.Id)
	if len(again) != len(entries) {
		t.Fatalf("journal grew from %d to %d on repeated settle", len(entries), len(again))
	}

	_, err = l.SettleCampaign(ctx, 42, 20)
	expectKind(t, err, ErrCampaignNotFound)
}

func TestCastVoteRules(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	plain := createCampaign(t, l, CreateCampaignParams{Goal: 100, MinContribution: 1, DurationBlocks: 10}, 0)
	contribute(t, l, plain.Id, alice, 10, 1)
	_, err := l.CastVote(ctx, plain.Id, alice, true, 2)
	expectKind(t, err, ErrVotingDisabled)

	c := createCampaign(t, l, CreateCampaignParams{
		Goal: 100, MinContribution: 1, DurationBlocks: 10,
		VotingEnabled: true, VotingDurationBlocks: 10,
	}, 0)
	_, err = l.CastVote(ctx, c.Id, bob, true, 2)
	expectKind(t, err, ErrNoVotingPower)

	contribute(t, l, c.Id, alice, 30, 1)
	vote, err := l.CastVote(ctx, c.Id, alice, true, 2)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !vote.Voted || !vote.VoteFor || vote.Weight != 30 {
		t.Fatalf("vote = %+v", vote)
	}

	_, err = l.CastVote(ctx, c.Id, alice, false, 3)
	expectKind(t, err, ErrAlreadyVoted)

	// 投票后追加贡献不改变已投票权重
	contribute(t, l, c.Id, alice, 20, 4)
	after, _ := l.GetCampaign(ctx, c.Id)
	if after.VotesFor != 30 || after.VotesAgainst != 0 {
		t.Fatalf("votes = %d/%d, want 30/0", after.VotesFor, after.VotesAgainst)
	}
	recorded, err := l.GetVote(ctx, c.Id, alice)
	if err != nil || recorded.Weight != 30 {
		t.Fatalf("recorded vote = %+v, %v", recorded, err)
	}
	none, err := l.GetVote(ctx, c.Id, bob)
	if err != nil || none.Voted {
		t.Fatalf("missing vote = %+v, %v", none, err)
	}
	checkBalances(t, l, c.Id)
}

func TestRefundedContributorCannotVote(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{
		Goal: 1000, MinContribution: 1, DurationBlocks: 10,
		VotingEnabled: true, VotingDurationBlocks: 10,
	}, 0)
	contribute(t, l, c.Id, alice, 30, 1)
	if _, err := l.CancelCampaign(ctx, c.Id, creator, 2); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := l.RequestRefund(ctx, c.Id, alice, 3); err != nil {
		t.Fatalf("refund: %v", err)
	}
	_, err := l.CastVote(ctx, c.Id, alice, true, 4)
	expectKind(t, err, ErrNoVotingPower)
}

func TestClaimRules(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{Goal: 10, MinContribution: 1, DurationBlocks: 10}, 0)
	contribute(t, l, c.Id, alice, 10, 1)

	_, err := l.ClaimFunds(ctx, c.Id, creator, 5)
	expectKind(t, err, ErrCampaignNotSuccessful)
	_, err = l.ClaimFunds(ctx, c.Id, alice, 5)
	expectKind(t, err, ErrUnauthorized)

	_, err = l.GetSettlement(ctx, c.Id)
	expectKind(t, err, ErrSettlementNotFound)
}

func TestClaimWithBrokenFeePolicy(t *testing.T) {
	store := repository.NewMemoryStore()
	l := New(store, StaticFeePolicy(20000))
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{Goal: 10, MinContribution: 1, DurationBlocks: 10}, 0)
	contribute(t, l, c.Id, alice, 10, 1)
	l.SettleCampaign(ctx, c.Id, 10)

	_, err := l.ClaimFunds(ctx, c.Id, creator, 10)
	if err == nil {
		t.Fatal("expected fee rate error")
	}
	if _, ok := KindOf(err); ok {
		t.Fatalf("fee policy failure reported as ledger kind: %v", err)
	}
	after, _ := l.GetCampaign(ctx, c.Id)
	if after.Claimed {
		t.Fatal("campaign marked claimed after failed claim")
	}
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		gross, rate, want int64
	}{
		{0, 250, 0},
		{1100, 250, 27},
		{150, 250, 3},
		{10000, 10000, 10000},
		{math.MaxInt64, 250, 230584300921369395},
		{999, 0, 0},
	}
	for _, tt := range tests {
		if got := computeFee(tt.gross, tt.rate); got != tt.want {
			t.Errorf("computeFee(%d, %d) = %d, want %d", tt.gross, tt.rate, got, tt.want)
		}
	}
}

func TestConcurrentContributionsNeverLoseUpdates(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{Goal: 1_000_000, MinContribution: 1, DurationBlocks: 1000}, 0)

	const workers, perWorker = 32, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			actor := model.Actor(fmt.Sprintf("SP-%d", w%8))
			for i := 0; i < perWorker; i++ {
				if _, err := l.Contribute(ctx, c.Id, actor, 7, 1); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("contribute: %v", err)
	}

	after, _ := l.GetCampaign(ctx, c.Id)
	if want := int64(workers * perWorker * 7); after.Raised != want {
		t.Fatalf("raised = %d, want %d", after.Raised, want)
	}
	checkBalances(t, l, c.Id)
}

func TestConcurrentRefundsAreExactlyOnce(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{Goal: 1000, MinContribution: 1, DurationBlocks: 10}, 0)
	contribute(t, l, c.Id, alice, 100, 1)
	l.CancelCampaign(ctx, c.Id, creator, 2)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.RequestRefund(ctx, c.Id, alice, 3); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else if !errors.Is(err, ErrAlreadyRefunded) {
				t.Errorf("unexpected refund error: %v", err)
			}
		}()
	}
	wg.Wait()
	if success != 1 {
		t.Fatalf("refund succeeded %d times, want 1", success)
	}
	checkBalances(t, l, c.Id)
}

func TestJournalRecordsEveryMutation(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	c := createCampaign(t, l, CreateCampaignParams{
		Goal: 10, MinContribution: 1, DurationBlocks: 10,
		VotingEnabled: true, VotingDurationBlocks: 5,
	}, 0)
	contribute(t, l, c.Id, alice, 20, 1)
	l.CastVote(ctx, c.Id, alice, true, 2)
	l.SettleCampaign(ctx, c.Id, 10)
	l.ClaimFunds(ctx, c.Id, creator, 15)
	// 失败的操作不写流水
	l.ClaimFunds(ctx, c.Id, creator, 16)

	entries, err := l.Journal(ctx, c.Id)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	want := []model.JournalType{
		model.JournalTypeCreated,
		model.JournalTypeContributed,
		model.JournalTypeVoted,
		model.JournalTypeSettled,
		model.JournalTypeClaimed,
	}
	if len(entries) != len(want) {
		t.Fatalf("journal has %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i, entry := range entries {
		if entry.EntryType != want[i] {
			t.Fatalf("entry %d = %s, want %s", i, entry.EntryType, want[i])
		}
	}
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("handler: %w", newError(KindAlreadyVoted, "SP-alice already voted"))
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatal("wrapped error does not match sentinel")
	}
	if errors.Is(err, ErrAlreadyClaimed) {
		t.Fatal("error matched a different kind")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindAlreadyVoted {
		t.Fatalf("KindOf = %s, %t", kind, ok)
	}
	if _, ok := KindOf(errors.New("disk full")); ok {
		t.Fatal("plain error reported a kind")
	}
	if ErrAlreadyVoted.Error() != "AlreadyVoted" {
		t.Fatalf("sentinel message = %q", ErrAlreadyVoted.Error())
	}
}
