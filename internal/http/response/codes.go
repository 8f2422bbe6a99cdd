package response

const (
	CodeOK                  = 0
	CodeBadRequest          = 400
	CodeUnauthorized        = 401
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeGone                = 410
	CodeUnprocessableEntity = 422
	CodeTooManyRequests     = 429
	CodeInternal            = 500
)

// RequestIDKey gin 上下文中请求 ID 的键
const RequestIDKey = "request_id"
