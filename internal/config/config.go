package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port      string  `mapstructure:"port"`
	Mode      string  `mapstructure:"mode"`
	RateLimit float64 `mapstructure:"rate_limit"` // 每秒允许的写请求数，0 表示不限流
	RateBurst int     `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // memory 或 postgres
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 返回 PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ChainConfig 区块高度来源配置
type ChainConfig struct {
	ChainType   string `mapstructure:"chain_type"`   // 链类型 (ethereum, polygon, manual 等)
	ChainId     int64  `mapstructure:"chain_id"`     // 链ID
	RpcUrl      string `mapstructure:"rpc_url"`      // RPC节点URL
	StartHeight int64  `mapstructure:"start_height"` // manual 模式的初始高度
}

// IsManual 是否使用手动时钟
func (c ChainConfig) IsManual() bool {
	return c.ChainType == "manual"
}

// LedgerConfig 账本规则配置
type LedgerConfig struct {
	PlatformFeeRate         int64 `mapstructure:"platform_fee_rate"` // 基点，250 = 2.5%
	MinDurationBlocks       int64 `mapstructure:"min_duration_blocks"`
	MaxDurationBlocks       int64 `mapstructure:"max_duration_blocks"`
	MaxVotingDurationBlocks int64 `mapstructure:"max_voting_duration_blocks"`
	MaxGoal                 int64 `mapstructure:"max_goal"`
	SettleWorkers           int   `mapstructure:"settle_workers"`
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

type SentryConfig struct {
	Dsn         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load 从配置文件和环境变量加载配置
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/crowdledger")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return LoadFrom(v)
}

// LoadFrom 使用给定的 viper 实例补齐默认值并解码
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 自动读取环境变量，如 CROWDLEDGER_SERVER_PORT
	v.SetEnvPrefix("crowdledger")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Ledger.PlatformFeeRate < 0 || c.Ledger.PlatformFeeRate > 10000 {
		return fmt.Errorf("ledger.platform_fee_rate must be within [0, 10000], got %d", c.Ledger.PlatformFeeRate)
	}
	switch c.Database.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Task.Interval <= 0 {
		return fmt.Errorf("task.interval must be positive, got %d", c.Task.Interval)
	}
	if !c.Chain.IsManual() && c.Chain.RpcUrl == "" {
		return fmt.Errorf("chain.rpc_url is required for chain type %q", c.Chain.ChainType)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crowdledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("chain.chain_type", "manual")
	v.SetDefault("chain.chain_id", 0)
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.start_height", 0)
	v.SetDefault("ledger.platform_fee_rate", 250)
	v.SetDefault("ledger.min_duration_blocks", 144)
	v.SetDefault("ledger.max_duration_blocks", 144000)
	v.SetDefault("ledger.max_voting_duration_blocks", 14400)
	v.SetDefault("ledger.max_goal", 0)
	v.SetDefault("ledger.settle_workers", 8)
	v.SetDefault("task.interval", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
}
