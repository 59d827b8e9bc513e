package router

import (
	"net/http"
	"time"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/config"
	"github.com/blues/crowdledger/internal/handler"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func Setup(l *ledger.Ledger, chainManager *chain.Manager, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(requestLogger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "crowdledger",
			"chain":   chainManager.GetHealthStatus(c.Request.Context()),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	oracle := chainManager.Oracle()
	limit := rateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaignHandler := handler.NewCampaignHandler(l, oracle)
		contributionHandler := handler.NewContributionHandler(l, oracle)
		voteHandler := handler.NewVoteHandler(l, oracle)

		// 活动相关路由
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", limit, campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/progress", campaignHandler.GetProgress)
			campaigns.GET("/:id/journal", campaignHandler.GetJournal)
			campaigns.POST("/:id/settle", limit, campaignHandler.SettleCampaign)
			campaigns.POST("/:id/cancel", limit, campaignHandler.CancelCampaign)

			campaigns.POST("/:id/contributions", limit, contributionHandler.Contribute)
			campaigns.GET("/:id/contributions", contributionHandler.GetContributions)
			campaigns.GET("/:id/contributions/:actor", contributionHandler.GetContribution)
			campaigns.POST("/:id/refunds", limit, contributionHandler.RequestRefund)
			campaigns.GET("/:id/refunds", contributionHandler.GetRefunds)

			campaigns.POST("/:id/votes", limit, voteHandler.CastVote)
			campaigns.GET("/:id/votes/:actor", voteHandler.GetVote)
			campaigns.POST("/:id/claim", limit, voteHandler.ClaimFunds)
			campaigns.GET("/:id/settlement", voteHandler.GetSettlement)
		}

		v1.GET("/stats", campaignHandler.GetStats)
		v1.GET("/fee-rate", campaignHandler.GetFeeRate)
		v1.GET("/actors/:actor/contributions", contributionHandler.GetActorContributions)

		chainHandler := handler.NewChainHandler(chainManager)
		v1.GET("/chain/height", chainHandler.GetHeight)
		if chainManager.ManualClock() != nil {
			v1.POST("/chain/advance", chainHandler.Advance)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, "+handler.ActorHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// rateLimitMiddleware 写接口令牌桶限流，limit <= 0 时不限流
func rateLimitMiddleware(limit float64, burst int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			handler.ErrorResponse(c, http.StatusTooManyRequests, "RateLimited", "请求过于频繁，请稍后重试")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger 请求日志
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
