package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/model"
	"github.com/panjf2000/ants/v2"
)

// SettleReport 批量结算结果
type SettleReport struct {
	Height     int64
	Due        int
	Successful []int64
	Failed     []int64
	Errors     map[int64]error
}

// Settled 本轮实际结算的活动数量
func (r *SettleReport) Settled() int {
	return len(r.Successful) + len(r.Failed)
}

// SettleDue 结算所有已到截止高度的进行中活动。每个活动在各自的锁内结算，互不阻塞
func (l *Ledger) SettleDue(ctx context.Context, height int64) (*SettleReport, error) {
	ids, err := l.store.ListDueCampaigns(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("获取待结算活动失败: %w", err)
	}

	report := &SettleReport{Height: height, Due: len(ids), Errors: make(map[int64]error)}
	if len(ids) == 0 {
		return report, nil
	}

	size := l.settleWorkers
	if len(ids) < size {
		size = len(ids)
	}
	// 协程池
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create settle pool of %d workers: %w", size, err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(id int64, campaign *model.CampaignModel, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			report.Errors[id] = err
		case campaign.SettledHeight != height:
			// 已被其他触发结算
		case campaign.Status == model.CampaignStatusSuccessful:
			report.Successful = append(report.Successful, id)
		case campaign.Status == model.CampaignStatusFailed:
			report.Failed = append(report.Failed, id)
		}
	}

	for _, id := range ids {
		id := id
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			campaign, err := l.SettleCampaign(ctx, id, height)
			record(id, campaign, err)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit settlement of campaign %d: %v", id, err)
			record(id, nil, err)
		}
	}
	wg.Wait()

	sort.Slice(report.Successful, func(i, j int) bool { return report.Successful[i] < report.Successful[j] })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i] < report.Failed[j] })

	if len(report.Errors) > 0 {
		logger.Warn("Settlement at height %d finished with %d errors", height, len(report.Errors))
	}
	return report, nil
}
