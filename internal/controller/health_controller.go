package controller

import (
	"context"
	"net/http"
	"talentedge_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PingFunc 检查可选依赖（如 Redis）是否可用
type PingFunc func(ctx context.Context) error

type HealthController struct {
	DB    *gorm.DB
	Redis PingFunc
	// 是否配置了 AI 评分模型
	OracleEnabled bool
}

func NewHealthController(db *gorm.DB, redis PingFunc, oracleEnabled bool) *HealthController {
	return &HealthController{DB: db, Redis: redis, OracleEnabled: oracleEnabled}
}

// @Summary 健康检查
// @Description 检查数据库、Redis 与评分模型状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{
		"database": "up",
		"oracle":   "fallback-only",
	}
	if c.OracleEnabled {
		components["oracle"] = "configured"
	}
	if c.Redis != nil {
		if err := c.Redis(pingCtx); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
