package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
)

// HeightOracle 当前区块高度来源，返回值单调不减
type HeightOracle interface {
	CurrentHeight(ctx context.Context) (int64, error)
}

// headerSource 由 *ethclient.Client 实现
type headerSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// BlockHeight 从链上读取最新区块头得到当前高度
type BlockHeight struct {
	source headerSource

	mu      sync.Mutex
	highest int64
}

// NewBlockHeight 创建区块高度工具
func NewBlockHeight(source headerSource) *BlockHeight {
	return &BlockHeight{source: source}
}

// CurrentHeight 获取当前最新区块号，节点回退（重组或切换节点）时返回已见过的最大值
func (b *BlockHeight) CurrentHeight(ctx context.Context) (int64, error) {
	header, err := b.source.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest header: %w", err)
	}
	if header == nil || header.Number == nil {
		return 0, fmt.Errorf("latest header has no block number")
	}
	if !header.Number.IsInt64() {
		return 0, fmt.Errorf("block number %s overflows int64", header.Number)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if height := header.Number.Int64(); height > b.highest {
		b.highest = height
	}
	return b.highest, nil
}
