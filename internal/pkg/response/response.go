// Package response 统一的 JSON 信封：HTTP 状态恒为 200，业务结果看 code。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess = 0

	// 1xxx 调用方可以自行修正的错误
	CodeParamError       = 1000
	CodeAuthFailed       = 1001
	CodePermissionDenied = 1002
	CodeResourceNotFound = 1003
	CodeQuotaExceeded    = 1004
	CodeDuplicateAction  = 1005
	CodeConflict         = 1006
	CodePaymentRequired  = 1007

	CodeServerError = 5000
)

var codeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeParamError:       "参数错误",
	CodeAuthFailed:       "认证失败",
	CodePermissionDenied: "权限不足",
	CodeResourceNotFound: "资源不存在",
	CodeQuotaExceeded:    "配额不足",
	CodeDuplicateAction:  "重复操作",
	CodeConflict:         "状态冲突",
	CodePaymentRequired:  "需要支付",
	CodeServerError:      "服务器内部错误",
}

// Response 信封
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageData 分页列表
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// Message 返回 code 的默认文案，未登记的 code 为空串
func Message(code int) string {
	return codeMessages[code]
}

func write(c *gin.Context, code int, message string, data interface{}) {
	if message == "" {
		message = Message(code)
	}
	c.JSON(http.StatusOK, Response{Code: code, Message: message, Data: data})
}

func Success(c *gin.Context, data interface{}) {
	write(c, CodeSuccess, "", data)
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, CodeSuccess, message, data)
}

func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	write(c, CodeSuccess, "", PageData{Total: total, Page: page, PageSize: pageSize, Items: items})
}

// Error 失败响应，message 为空时用 code 的默认文案
func Error(c *gin.Context, code int, message string) {
	write(c, code, message, nil)
}

func ParamError(c *gin.Context, message string)      { Error(c, CodeParamError, message) }
func AuthError(c *gin.Context, message string)       { Error(c, CodeAuthFailed, message) }
func PermissionError(c *gin.Context, message string) { Error(c, CodePermissionDenied, message) }
func QuotaError(c *gin.Context, message string)      { Error(c, CodeQuotaExceeded, message) }
func ServerError(c *gin.Context, message string)     { Error(c, CodeServerError, message) }
