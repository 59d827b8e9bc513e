package chain

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
)

// ErrHeightOverflow 推进后高度超出 int64 范围
var ErrHeightOverflow = errors.New("block height overflow")

// ManualClock 手动推进的高度，开发模式和测试使用
type ManualClock struct {
	height atomic.Int64
}

func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.height.Store(start)
	return c
}

func (c *ManualClock) CurrentHeight(context.Context) (int64, error) {
	return c.height.Load(), nil
}

// Advance 前进 n 个区块，n <= 0 时不变；溢出时高度保持不变并返回 ErrHeightOverflow
func (c *ManualClock) Advance(n int64) (int64, error) {
	for {
		current := c.height.Load()
		if n <= 0 {
			return current, nil
		}
		if current > math.MaxInt64-n {
			return current, ErrHeightOverflow
		}
		if c.height.CompareAndSwap(current, current+n) {
			return current + n, nil
		}
	}
}

// Set 设置高度，低于当前值时忽略
func (c *ManualClock) Set(height int64) int64 {
	for {
		current := c.height.Load()
		if height <= current {
			return current
		}
		if c.height.CompareAndSwap(current, height) {
			return height
		}
	}
}
