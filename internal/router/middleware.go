package router

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/i18n"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "Accept-Language", requestIDHeader}
)

// corsPolicy 启动时解析好的跨域规则
type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefaultList(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefaultList(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	for _, origin := range orDefaultList(cfg.AllowedOrigins, []string{"*"}) {
		if origin == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.ToLower(strings.TrimSpace(origin))] = struct{}{}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin 返回应写入 Access-Control-Allow-Origin 的值，空串表示不允许
// 携带凭证时不能使用 *，改为回显来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok && origin != "" {
		return origin
	}
	return ""
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	return newCORSPolicy(config.CORSConfig{AllowedOrigins: allowedOrigins, AllowCredentials: allowCredentials}).allowOrigin(origin)
}

func orDefaultList(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", policy.methods)
		h.Set("Access-Control-Allow-Headers", policy.headers)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		if policy.maxAge != "" {
			h.Set("Access-Control-Max-Age", policy.maxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 沿用调用方的 X-Request-ID，缺失时生成
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware 访问日志，quietPaths 中的探活与指标请求仅在 debug 级别记录
func LoggerMiddleware(log *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, path := range quietPaths {
		quiet[path] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if actor, ok := shared.ActorFrom(c); ok {
			fields = append(fields, "actor", actor.Role+":"+strconv.FormatUint(uint64(actor.ID), 10))
		}
		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("http_request", append(fields, "errors", c.Errors.String())...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			sugar.Errorw("http_request", fields...)
		default:
			if _, ok := quiet[c.Request.URL.Path]; ok {
				sugar.Debugw("http_request", fields...)
				return
			}
			sugar.Infow("http_request", fields...)
		}
	}
}

// RecoveryMiddleware 捕获 panic，记录堆栈并返回统一的 500 响应
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.SW("request_id", getRequestID(c)).Errorw("http_panic_recovered",
			"path", c.Request.URL.Path,
			"panic", recovered,
			"stack", string(debug.Stack()),
		)
		response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.internal"))
		c.Abort()
	})
}

func getRequestID(c *gin.Context) string {
	return c.GetString(response.RequestIDKey)
}

// ActorAuthMiddleware 操作人令牌鉴权中间件
// 支持 Authorization: Bearer 与 token 查询参数（websocket 握手）
func ActorAuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			logger.Errorw("actor_auth_token_service_unavailable")
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
			c.Abort()
			return
		}
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			tokenString = strings.TrimSpace(c.Query("token"))
		}
		if tokenString == "" {
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
			c.Abort()
			return
		}
		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			logger.Debugw("actor_auth_token_invalid", "request_id", getRequestID(c), "error", err)
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.token_invalid"))
			c.Abort()
			return
		}
		shared.SetActor(c, claims.Actor())
		c.Next()
	}
}

// RequireRoles 限定操作人角色
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := shared.ActorFrom(c)
		if !ok {
			response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			logger.Warnw("actor_role_denied",
				"request_id", getRequestID(c),
				"actor_id", actor.ID,
				"role", actor.Role,
				"path", c.Request.URL.Path,
			)
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
