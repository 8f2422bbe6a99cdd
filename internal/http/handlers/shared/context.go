package shared

import (
	"strconv"
	"strings"

	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

// ActorContextKey 请求上下文中的操作人键
const ActorContextKey = "actor"

// SetActor 写入当前操作人
func SetActor(c *gin.Context, actor service.Actor) {
	c.Set(ActorContextKey, actor)
}

// ActorFrom 读取当前操作人
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	if c == nil {
		return service.Actor{}, false
	}
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return service.Actor{}, false
	}
	actor, ok := value.(service.Actor)
	if !ok || !actor.Valid() {
		return service.Actor{}, false
	}
	return actor, true
}

// MustActor 读取当前操作人，缺失时返回 401
func MustActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := ActorFrom(c)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return service.Actor{}, false
	}
	return actor, true
}

// ParseIDParam 解析路径中的正整数 ID
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.id_invalid", nil)
		return 0, false
	}
	return uint(id), true
}

// ParseOptionalUintQuery 解析可选的正整数查询参数
func ParseOptionalUintQuery(c *gin.Context, name string) uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
