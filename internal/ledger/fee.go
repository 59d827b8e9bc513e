package ledger

import (
	"context"
	"fmt"
)

// BasisPoints 费率分母
const BasisPoints int64 = 10000

// DefaultFeeRate 默认平台手续费 2.5%
const DefaultFeeRate int64 = 250

// FeePolicy 平台手续费策略，返回基点费率
type FeePolicy interface {
	FeeRate(ctx context.Context) (int64, error)
}

// StaticFeePolicy 固定费率
type StaticFeePolicy int64

func (p StaticFeePolicy) FeeRate(context.Context) (int64, error) {
	return int64(p), nil
}

// Payout 提款结果
type Payout struct {
	Gross   int64 `json:"gross"`
	Fee     int64 `json:"fee"`
	Net     int64 `json:"net"`
	FeeRate int64 `json:"fee_rate"`
}

// computeFee 按基点向下取整，拆分计算避免 gross*rate 溢出
func computeFee(gross, rate int64) int64 {
	return gross/BasisPoints*rate + (gross%BasisPoints)*rate/BasisPoints
}

func validateFeeRate(rate int64) error {
	if rate < 0 || rate > BasisPoints {
		return fmt.Errorf("fee rate %d out of range [0, %d]", rate, BasisPoints)
	}
	return nil
}
