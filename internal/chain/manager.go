package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/blues/crowdledger/internal/config"
	"github.com/blues/crowdledger/internal/logger"
	"github.com/ethereum/go-ethereum/ethclient"
)

var supportedChainTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism"}

// Manager 单链管理器，持有 RPC 客户端并提供高度来源
type Manager struct {
	mu     sync.RWMutex
	client *ethclient.Client
	oracle HeightOracle
	manual *ManualClock
	config config.ChainConfig
}

// NewManager 根据配置创建高度来源；manual 类型不连接节点
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	m := &Manager{config: cfg}

	if cfg.IsManual() {
		m.manual = NewManualClock(cfg.StartHeight)
		m.oracle = m.manual
		logger.Info("Using manual block height starting at %d", cfg.StartHeight)
		return m, nil
	}

	if !isSupported(cfg.ChainType) {
		return nil, fmt.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedChainTypes)
	}
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	// 测试连接
	if cfg.ChainId != 0 {
		chainId, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
		}
		if chainId.Int64() != cfg.ChainId {
			client.Close()
			return nil, fmt.Errorf("chain id mismatch: node reports %s, configured %d", chainId, cfg.ChainId)
		}
	}

	m.client = client
	m.oracle = NewBlockHeight(client)

	height, err := m.oracle.CurrentHeight(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	logger.Info("Connected to %s, current block: %d", cfg.ChainType, height)
	return m, nil
}

// Oracle 返回高度来源
func (m *Manager) Oracle() HeightOracle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.oracle
}

// ManualClock 返回手动时钟，非 manual 模式为 nil
func (m *Manager) ManualClock() *ManualClock {
	return m.manual
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
	}
	height, err := m.Oracle().CurrentHeight(ctx)
	if err != nil {
		health["client_status"] = "disconnected"
		return health
	}
	health["current_height"] = height
	return health
}

// Close 关闭管理器
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	logger.Info("Chain manager closed")
}

func isSupported(chainType string) bool {
	for _, supported := range supportedChainTypes {
		if chainType == supported {
			return true
		}
	}
	return false
}
