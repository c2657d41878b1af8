package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HashFingerprint 对设备指纹做哈希，日志中只出现摘要
func HashFingerprint(fp string) string {
	hash := sha256.Sum256([]byte(fp))
	return hex.EncodeToString(hash[:8])
}

// Response 统一API响应结构
type Response struct {
	Code    int         `json:"code"`             // 状态码或业务错误码
	Message string      `json:"message"`          // 消息
	Reason  string      `json:"reason,omitempty"` // 错误原因
	Data    interface{} `json:"data"`             // 数据
	Success bool        `json:"success"`          // 是否成功
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
		Success: true,
	})
}

// Created 返回201响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
		Success: true,
	})
}

// Error 返回错误响应
func Error(c *gin.Context, status int, message string) {
	ErrorCode(c, status, status, message, "")
}

// ErrorCode 返回带业务错误码的错误响应
func ErrorCode(c *gin.Context, status, code int, message, reason string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
		Reason:  reason,
		Data:    nil,
		Success: false,
	})
}

// Unauthorized 返回401错误
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "未登录"
	}
	Error(c, http.StatusUnauthorized, message)
}

// InternalServerError 返回500错误
func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "服务器内部错误"
	}
	Error(c, http.StatusInternalServerError, message)
}
