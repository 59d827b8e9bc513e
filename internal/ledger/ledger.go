package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blues/crowdledger/internal/metrics"
	"github.com/blues/crowdledger/internal/model"
	"github.com/blues/crowdledger/internal/repository"
)

// Limits 产品层面的创建限制，0 表示不限制
type Limits struct {
	MinDurationBlocks       int64
	MaxDurationBlocks       int64
	MaxVotingDurationBlocks int64
	MaxGoal                 int64
}

// Option 账本选项
type Option func(*Ledger)

// WithLimits 设置创建限制
func WithLimits(limits Limits) Option {
	return func(l *Ledger) {
		l.limits = limits
	}
}

// WithSettleWorkers 设置批量结算的并发数
func WithSettleWorkers(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.settleWorkers = n
		}
	}
}

// Ledger 众筹账本，所有状态变更都在单个活动的排他事务内完成。
// 区块高度由调用方传入，账本不访问外部时钟。
type Ledger struct {
	store         repository.Store
	fees          FeePolicy
	limits        Limits
	settleWorkers int
}

// New 创建账本
func New(store repository.Store, fees FeePolicy, opts ...Option) *Ledger {
	if fees == nil {
		fees = StaticFeePolicy(DefaultFeeRate)
	}
	l := &Ledger{
		store:         store,
		fees:          fees,
		settleWorkers: 8,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// update 执行单活动事务，并把存储层错误转换为账本错误
func (l *Ledger) update(ctx context.Context, campaignId int64, fn func(tx repository.Tx) error) error {
	err := l.store.Update(ctx, campaignId, fn)
	if err == nil {
		return nil
	}
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindCampaignNotFound, "campaign %d does not exist", campaignId)
	}
	return fmt.Errorf("更新活动 %d 失败: %w", campaignId, err)
}

// observe 记录操作耗时，result 为 success、错误类型或 internal
func observe(operation string, start time.Time, err *error) {
	result := "success"
	if *err != nil {
		if kind, ok := KindOf(*err); ok {
			result = string(kind)
		} else {
			result = "internal"
		}
	}
	metrics.RecordOperationDuration(operation, result, time.Since(start).Seconds())
}

func journalEntry(entryType model.JournalType, actor model.Actor, amount, height int64, data interface{}) *model.JournalModel {
	entry := &model.JournalModel{
		EntryType: entryType,
		Actor:     actor,
		Amount:    amount,
		Height:    height,
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			entry.Data = string(raw)
		}
	}
	return entry
}

func requireActor(actor model.Actor, role string) error {
	if actor == "" {
		return newError(KindInvalidParameters, "%s identity is required", role)
	}
	return nil
}
