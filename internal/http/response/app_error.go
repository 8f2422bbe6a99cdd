package response

import "github.com/gin-gonic/gin"

// AppError 统一错误包装，Kind 为空时按普通错误输出
type AppError struct {
	Code         int
	Kind         string
	Message      string
	BlockingDocs interface{}
	Err          error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithKind 标记业务错误分类
func (e *AppError) WithKind(kind string) *AppError {
	e.Kind = kind
	return e
}

// Render 写出错误响应
func (e *AppError) Render(c *gin.Context) {
	if e.Kind == "" {
		Error(c, e.Code, e.Message)
		return
	}
	KindError(c, e.Code, e.Message, ErrorData{
		Kind:         e.Kind,
		BlockingDocs: e.BlockingDocs,
	})
}
