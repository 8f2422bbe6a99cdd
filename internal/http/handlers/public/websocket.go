package public

import (
	"net/http"

	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChannelsForActor 操作人可订阅的推送通道
func ChannelsForActor(actor service.Actor) []events.Recipient {
	switch {
	case actor.IsAdmin():
		return []events.Recipient{events.AllAdmins, events.AdminRecipient(actor.ID)}
	case actor.IsShipper():
		return []events.Recipient{events.ShipperRecipient(actor.ID)}
	case actor.IsCarrier():
		return []events.Recipient{events.CarrierRecipient(actor.ID), events.AllCarriers}
	default:
		return nil
	}
}

// ServeEvents 建立实时事件推送连接
func (h *Handler) ServeEvents(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if h.Hub == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	channels := ChannelsForActor(actor)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 升级失败时 upgrader 已写回 HTTP 错误
		shared.RequestLog(c).Warnw("ws_upgrade_failed", "actor_id", actor.ID, "role", actor.Role, "error", err)
		return
	}
	shared.RequestLog(c).Infow("ws_connected", "actor_id", actor.ID, "role", actor.Role, "channels", channels)
	h.Hub.Serve(conn, channels...)
}
