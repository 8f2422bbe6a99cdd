package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/i18n"
	"github.com/freightlane/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 从请求中取限流维度
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// hit 计数加一并返回当前计数与窗口剩余时间，窗口在首次计数时开始
func (r RateLimitRule) hit(ctx context.Context, client *redis.Client, key string) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		if err := client.Expire(ctx, key, r.window()).Err(); err != nil {
			return 0, 0, err
		}
		remaining = r.window()
	}
	return incr.Val(), remaining, nil
}

// RateLimitMiddleware 基于 Redis 的固定窗口限流
// 未配置 Redis 时放行；Redis 故障时拒绝请求，OTP 校验不允许绕过计数
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		key := c.ClientIP()
		if keyFunc != nil {
			if custom := strings.TrimSpace(keyFunc(c)); custom != "" {
				key = custom
			}
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		locale := i18n.ResolveLocale(c)
		count, remaining, err := rule.hit(c.Request.Context(), client, key)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(locale, "error.rate_limit_unavailable"))
			c.Abort()
			return
		}
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := int(remaining.Round(time.Second) / time.Second)
		if wait < 1 {
			wait = 1
		}
		msgKey := rule.MessageKey
		if msgKey == "" {
			msgKey = "error.rate_limited"
		}
		logger.Infow("rate_limit_exceeded", "key", key, "count", count, "retry_after", wait)
		c.Header("Retry-After", strconv.Itoa(wait))
		response.TooManyRequests(c, i18n.Sprintf(locale, msgKey, wait))
		c.Abort()
	}
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByActorAndParam 按操作人与路径参数限流，未登录时回退 IP
func KeyByActorAndParam(param string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		actor, ok := shared.ActorFrom(c)
		if !ok {
			return c.ClientIP()
		}
		subject := fmt.Sprintf("%s:%d", actor.Role, actor.ID)
		if value := strings.TrimSpace(c.Param(param)); value != "" {
			return subject + "|" + value
		}
		return subject
	}
}
