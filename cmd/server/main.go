package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/config"
	"github.com/blues/crowdledger/internal/database"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/monitoring"
	"github.com/blues/crowdledger/internal/repository"
	"github.com/blues/crowdledger/internal/router"
	"github.com/blues/crowdledger/internal/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := monitoring.Init(cfg.Sentry.Dsn, cfg.Sentry.Environment); err != nil {
		logger.Warn("Sentry disabled: %v", err)
	}
	defer monitoring.Flush(2 * time.Second)

	// 初始化存储
	var store repository.Store
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.Init(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize database: %v", err)
		}
		defer database.Close(db)
		store = repository.NewPostgresStore(db)
	default:
		logger.Warn("Using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore()
	}

	// 初始化区块高度来源
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	chainManager, err := chain.NewManager(ctx, cfg.Chain)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize chain manager: %v", err)
	}
	defer chainManager.Close()

	l := ledger.New(store, ledger.StaticFeePolicy(cfg.Ledger.PlatformFeeRate),
		ledger.WithLimits(ledger.Limits{
			MinDurationBlocks:       cfg.Ledger.MinDurationBlocks,
			MaxDurationBlocks:       cfg.Ledger.MaxDurationBlocks,
			MaxVotingDurationBlocks: cfg.Ledger.MaxVotingDurationBlocks,
			MaxGoal:                 cfg.Ledger.MaxGoal,
		}),
		ledger.WithSettleWorkers(cfg.Ledger.SettleWorkers),
	)

	// 启动定时任务
	tasks, err := scheduler.NewManager(
		scheduler.NewSettlementJob(l, chainManager.Oracle(), time.Duration(cfg.Task.Interval)*time.Second),
	)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	tasks.Start()
	defer tasks.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(l, chainManager, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.With(zap.String("component", "http")).GetZapLogger()),
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}
