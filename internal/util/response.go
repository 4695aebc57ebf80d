package util

import (
	"net/http"
	"talentedge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构. Code mirrors the HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

// Error 写入错误响应并中止后续处理
func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string)          { Error(c, http.StatusBadRequest, message) }
func Unauthorized(c *gin.Context)                         { Error(c, http.StatusUnauthorized, "Unauthorized") }
func Forbidden(c *gin.Context)                            { Error(c, http.StatusForbidden, "Forbidden") }
func NotFound(c *gin.Context, message string)            { Error(c, http.StatusNotFound, message) }
func Conflict(c *gin.Context, message string)            { Error(c, http.StatusConflict, message) }
func UnprocessableEntity(c *gin.Context, message string) { Error(c, http.StatusUnprocessableEntity, message) }

// LogInternalError 记录内部错误日志，客户端只收到通用提示
func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("route", c.FullPath()),
	)
	Error(c, http.StatusInternalServerError, "Internal server error")
}
