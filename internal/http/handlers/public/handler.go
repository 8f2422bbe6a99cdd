package public

import "github.com/freightlane/internal/provider"

// Handler 货主/承运方接口处理器入口
// 说明：管理员同样可访问，权限由业务层按角色判定。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
