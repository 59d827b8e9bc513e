package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/monitoring"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// SettlementJob 定期结算已到截止高度的活动
type SettlementJob struct {
	ledger   *ledger.Ledger
	oracle   chain.HeightOracle
	interval time.Duration
	timeout  time.Duration
}

// NewSettlementJob 创建结算任务
func NewSettlementJob(l *ledger.Ledger, oracle chain.HeightOracle, interval time.Duration) *SettlementJob {
	return &SettlementJob{
		ledger:   l,
		oracle:   oracle,
		interval: interval,
		timeout:  interval,
	}
}

// GetName 获取任务名称
func (j *SettlementJob) GetName() string {
	return "campaign_settlement"
}

// GetSchedule 获取调度配置
func (j *SettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *SettlementJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Run(ctx); err != nil {
		logger.Error("Settlement task failed: %v", err)
		monitoring.Error(err)
	}
}

// Run 获取当前高度后结算所有到期活动，单个活动的失败会上报但不中断本轮
func (j *SettlementJob) Run(ctx context.Context) (*ledger.SettleReport, error) {
	height, err := j.oracle.CurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve block height: %w", err)
	}

	report, err := j.ledger.SettleDue(ctx, height)
	if err != nil {
		return nil, err
	}
	log := logger.With(zap.String("job", j.GetName()), zap.Int64("height", height))
	for id, settleErr := range report.Errors {
		monitoring.Error(fmt.Errorf("settle campaign %d at height %d: %w", id, height, settleErr))
	}
	if len(report.Errors) > 0 {
		monitoring.Message(fmt.Sprintf("settlement at height %d left %d of %d campaigns unsettled",
			height, len(report.Errors), report.Due))
	}
	if report.Due > 0 {
		log.Info("%d due, %d successful, %d failed, %d errors",
			report.Due, len(report.Successful), len(report.Failed), len(report.Errors))
	} else {
		log.Debug("No campaigns due")
	}
	return report, nil
}
