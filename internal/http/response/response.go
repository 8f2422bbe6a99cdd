package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const successMsg = "success"

// Response 统一响应结构，HTTP 状态码恒为 200，结果由 status_code 区分
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// PageResponse 列表响应
type PageResponse struct {
	Response
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// ErrorData 失败响应的 data 部分
type ErrorData struct {
	Kind         string      `json:"kind,omitempty"`
	BlockingDocs interface{} `json:"blocking_docs,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
}

func write(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, Response{Msg: successMsg, Data: data})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	write(c, PageResponse{Response: Response{Msg: successMsg, Data: data}, Pagination: pagination})
}

// Error 失败响应，data 仅携带 request_id
func Error(c *gin.Context, statusCode int, msg string) {
	var data interface{}
	if id := requestIDFrom(c); id != "" {
		data = ErrorData{RequestID: id}
	}
	write(c, Response{StatusCode: statusCode, Msg: msg, Data: data})
}

// KindError 带错误分类的失败响应
func KindError(c *gin.Context, statusCode int, msg string, data ErrorData) {
	if data.RequestID == "" {
		data.RequestID = requestIDFrom(c)
	}
	write(c, Response{StatusCode: statusCode, Msg: msg, Data: data})
}

// Unauthorized 401
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// Forbidden 403
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context, msg string) {
	Error(c, CodeTooManyRequests, msg)
}

func requestIDFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(RequestIDKey)
}
