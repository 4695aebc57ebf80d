package app

import (
	"talentedge_backend/docs"
	"talentedge_backend/internal/config"
	"talentedge_backend/internal/middleware"
	"talentedge_backend/internal/util"
	"talentedge_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 评审人员接口
	reviewer := router.Group("/api/reviewer")
	reviewer.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(util.RoleReviewer, util.RoleAdmin))
	{
		a.registerReviewerRoutes(reviewer, c)
	}
}

func (a *App) registerReviewerRoutes(rg *gin.RouterGroup, c *controllers) {
	// 考试尝试评估
	rg.POST("/attempts/evaluate", c.evaluation.EvaluateAttempts)
	rg.POST("/attempts/:id/evaluate", c.evaluation.EvaluateAttempt)
	rg.GET("/attempts/:id/summary", c.evaluation.GetAttemptSummary)

	// 人工改分
	rg.PUT("/responses/:id/score", c.evaluation.OverrideScore)
}
