package api

import (
	"net/http"
	"os"

	"github.com/fyerfyer/doc-insight-system/api/handler"
	"github.com/fyerfyer/doc-insight-system/api/middleware"
	"github.com/fyerfyer/doc-insight-system/api/model"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置API路由
func SetupRouter(analysisHandler *handler.AnalysisHandler) *gin.Engine {
	if err := model.RegisterValidations(); err != nil {
		middleware.GetLogger().WithError(err).Warn("Failed to register custom validations")
	}

	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// 调试模式下记录请求体
	if os.Getenv("DEBUG") == "true" {
		router.Use(middleware.RequestBodyLog())
	}

	router.Use(corsMiddleware())

	// 健康检查
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		// 集合分析
		apiGroup.POST("/collections", analysisHandler.SubmitCollection)

		// 批量分析
		apiGroup.POST("/batch", analysisHandler.RunBatch)

		// 作业管理
		jobGroup := apiGroup.Group("/jobs")
		{
			jobGroup.GET("", analysisHandler.ListJobs)
			jobGroup.GET("/:id", analysisHandler.GetJobStatus)
			jobGroup.GET("/:id/result", analysisHandler.GetJobResult)
			jobGroup.GET("/:id/tasks", analysisHandler.GetJobTasks)
			jobGroup.DELETE("/:id", analysisHandler.DeleteJob)
		}
	}

	return router
}

// corsMiddleware 处理跨域请求
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Trace-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
