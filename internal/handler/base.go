package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/crowdledger/internal/chain"
	"github.com/blues/crowdledger/internal/ledger"
	"github.com/blues/crowdledger/internal/logger"
	"github.com/blues/crowdledger/internal/model"
	"github.com/gin-gonic/gin"
)

// ActorHeader 调用方身份请求头
const ActorHeader = "X-Actor"

// base 各处理器共用的账本、高度来源和参数解析
type base struct {
	ledger *ledger.Ledger
	oracle chain.HeightOracle
}

func (b *base) campaignId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的活动ID")
		return 0, false
	}
	return id, true
}

func (b *base) actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := model.ParseActor(c.GetHeader(ActorHeader))
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, CodeMissingActor, "缺少 "+ActorHeader+" 请求头")
		return "", false
	}
	return actor, true
}

func (b *base) pathActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := model.ParseActor(c.Param("actor"))
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, "无效的地址")
		return "", false
	}
	return actor, true
}

// height 在调用账本之前获取当前区块高度
func (b *base) height(c *gin.Context) (int64, bool) {
	height, err := b.oracle.CurrentHeight(c.Request.Context())
	if err != nil {
		logger.Error("Failed to resolve block height: %v", err)
		ErrorResponse(c, http.StatusServiceUnavailable, CodeHeightUnavailable, "无法获取当前区块高度")
		return 0, false
	}
	return height, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return false
	}
	return true
}
