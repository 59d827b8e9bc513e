package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

type failingOracle struct{}

func (failingOracle) CurrentHeight(context.Context) (int64, error) {
	return 0, errors.New("node unreachable")
}

func TestSettlementJobSettlesDueCampaigns(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(repository.NewMemoryStore(), nil)
	clock := chain.NewManualClock(0)

	funded, _ := l.CreateCampaign(ctx, ledger.CreateCampaignParams{Creator: "SP-c", Title: "a", Goal: 10, MinContribution: 1, DurationBlocks: 10}, 0)
	unfunded, _ := l.CreateCampaign(ctx, ledger.CreateCampaignParams{Creator: "SP-c", Title: "b", Goal: 10, MinContribution: 1, DurationBlocks: 10}, 0)
	if _, err := l.Contribute(ctx, funded.Id, "SP-a", 10, 1); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	job := NewSettlementJob(l, clock, time.Minute)

	report, err := job.Run(ctx)
	if err != nil || report.Due != 0 {
		t.Fatalf("run before deadline = %+v, %v", report, err)
	}

	clock.Set(10)
	report, err = job.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Settled() != 2 {
		t.Fatalf("report = %+v", report)
	}

	c, _ := l.GetCampaign(ctx, funded.Id)
	if c.Status != model.CampaignStatusSuccessful {
		t.Fatalf("funded status = %s", c.Status)
	}
	c, _ = l.GetCampaign(ctx, unfunded.Id)
	if c.Status != model.CampaignStatusFailed {
		t.Fatalf("unfunded status = %s", c.Status)
	}

	// 重复触发
	report, err = job.Run(ctx)
	if err != nil || report.Settled() != 0 {
		t.Fatalf("repeated run = %+v, %v", report, err)
	}
}

func TestSettlementJobHeightFailure(t *testing.T) {
	job := NewSettlementJob(ledger.New(repository.NewMemoryStore(), nil), failingOracle{}, time.Minute)
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected height error")
	}
	// Execute 只记录错误
	job.Execute()
}

func TestManagerRegistersJobs(t *testing.T) {
	job := NewSettlementJob(ledger.New(repository.NewMemoryStore(), nil), chain.NewManualClock(0), time.Hour)
	m, err := NewManager(job)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.Start()
	m.Stop()
	if len(m.jobs) != 1 {
		t.Fatalf("jobs = %d", len(m.jobs))
	}
}

// lockedStore 指定活动的事务总是失败
type lockedStore struct {
	*repository.MemoryStore
	locked int64
}

func (s lockedStore) Update(ctx context.Context, campaignId int64, fn func(tx repository.Tx) error) error {
	if campaignId == s.locked {
		return errors.New("row lock timeout")
	}
	return s.MemoryStore.Update(ctx, campaignId, fn)
}

func TestSettlementJobReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	l := ledger.New(lockedStore{MemoryStore: store, locked: 2}, nil)

	for _, title := range []string{"a", "b", "c"} {
		if _, err := l.CreateCampaign(ctx, ledger.CreateCampaignParams{Creator: "SP-c", Title: title, Goal: 10, MinContribution: 1, DurationBlocks: 5}, 0); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	report, err := NewSettlementJob(l, chain.NewManualClock(5), time.Minute).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Due != 3 || report.Settled() != 2 || len(report.Errors) != 1 || report.Errors[2] == nil {
		t.Fatalf("report = %+v", report)
	}
	c, _ := l.GetCampaign(ctx, 2)
	if c.Status != model.CampaignStatusActive {
		t.Fatalf("locked campaign status = %s", c.Status)
	}
}
